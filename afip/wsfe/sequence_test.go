package wsfe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afipcloud/go-afip-client/afip"
)

func lastAuthorizedResponse(number string) string {
	return `<FECompUltimoAutorizadoResponse xmlns="http://ar.gov.afip.dif.FEV1/">
  <FECompUltimoAutorizadoResult>
    <PtoVta>4000</PtoVta><CbteTipo>1</CbteTipo><CbteNro>` + number + `</CbteNro>
  </FECompUltimoAutorizadoResult>
</FECompUltimoAutorizadoResponse>`
}

func TestNextNumber(t *testing.T) {

	transport := &fakeTransport{responses: map[string]string{
		soapAction("FECompUltimoAutorizado"): lastAuthorizedResponse("41"),
	}}
	tracker := NewSequenceTracker(NewService(transport, "20000000001"))

	next, err := tracker.NextNumber(context.Background(), testTicket(), 4000, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)
}

func TestNextNumberFirstVoucher(t *testing.T) {

	transport := &fakeTransport{responses: map[string]string{
		soapAction("FECompUltimoAutorizado"): lastAuthorizedResponse("0"),
	}}
	tracker := NewSequenceTracker(NewService(transport, "20000000001"))

	next, err := tracker.NextNumber(context.Background(), testTicket(), 4000, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func TestNextNumberQueryFailure(t *testing.T) {

	transport := &fakeTransport{responses: map[string]string{
		soapAction("FECompUltimoAutorizado"): `<FECompUltimoAutorizadoResponse xmlns="http://ar.gov.afip.dif.FEV1/">
  <FECompUltimoAutorizadoResult>
    <Errors><Err><Code>601</Code><Msg>CUIT no autorizado</Msg></Err></Errors>
  </FECompUltimoAutorizadoResult>
</FECompUltimoAutorizadoResponse>`,
	}}
	tracker := NewSequenceTracker(NewService(transport, "20000000001"))

	_, err := tracker.NextNumber(context.Background(), testTicket(), 4000, 1)

	var qerr *afip.QueryError
	require.ErrorAs(t, err, &qerr)

	var serr *ServiceError
	assert.ErrorAs(t, err, &serr)
}
