package wsaa

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTicketRequestXML(t *testing.T) {

	generated := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	tra := AccessTicketRequest{
		Service:    "wsfe",
		Generated:  generated,
		Expiration: generated.Add(5 * time.Hour),
	}

	raw, err := tra.XML()
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "loginTicketRequest", root.Tag)
	assert.Equal(t, "1.0", root.SelectAttrValue("version", ""))

	assert.Equal(t, "wsfe", doc.FindElement("//service").Text())
	assert.Equal(t, "2024-05-10T12:00:00Z", doc.FindElement("//header/generationTime").Text())
	assert.Equal(t, "2024-05-10T17:00:00Z", doc.FindElement("//header/expirationTime").Text())
	assert.NotEmpty(t, doc.FindElement("//header/uniqueId").Text())
}

func TestParseLoginTicketResponse(t *testing.T) {

	xml := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<loginTicketResponse version="1.0">
  <header>
    <source>CN=wsaahomo</source>
    <destination>SERIALNUMBER=CUIT 20000000001</destination>
    <uniqueId>2163842918</uniqueId>
    <generationTime>2011-01-01T00:00:09-03:00</generationTime>
    <expirationTime>2011-01-01T12:00:09-03:00</expirationTime>
  </header>
  <credentials>
    <token>token-value</token>
    <sign>sign-value</sign>
  </credentials>
</loginTicketResponse>`)

	ticket, err := ParseLoginTicketResponse(xml, "wsfe")
	require.NoError(t, err)

	assert.Equal(t, "token-value", ticket.Token)
	assert.Equal(t, "sign-value", ticket.Sign)
	assert.Equal(t, "wsfe", ticket.Service)
	assert.True(t, ticket.Expiration.After(ticket.Generated))
}

func TestParseLoginTicketResponseMissingCredentials(t *testing.T) {

	_, err := ParseLoginTicketResponse([]byte(`<loginTicketResponse/>`), "wsfe")
	require.Error(t, err)
}

func TestTicketValidity(t *testing.T) {

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	ticket := &Ticket{Expiration: now.Add(10 * time.Minute)}

	assert.True(t, ticket.Valid(now))
	assert.True(t, ticket.ValidFor(now, 5*time.Minute))
	assert.False(t, ticket.ValidFor(now, 15*time.Minute))
	assert.False(t, ticket.Valid(now.Add(11*time.Minute)))

	var nilTicket *Ticket
	assert.False(t, nilTicket.Valid(now))
}
