package afip

import (
	"fmt"
	"strings"
)

// Environment selects between AFIP homologation (testing) and production
// endpoints. Certificate and key material differ per environment and is
// supplied by the caller.
type Environment int

const (
	Testing Environment = iota
	Production
)

// WsaaURL returns the login (WSAA) endpoint for the environment.
func (e Environment) WsaaURL() string {
	switch e {
	case Production:
		return "https://wsaa.afip.gov.ar/ws/services/LoginCms"
	case Testing:
		return "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"
	}
	panic("invalid environment")
}

// WsfeURL returns the electronic invoicing (WSFEv1) endpoint for the environment.
func (e Environment) WsfeURL() string {
	switch e {
	case Production:
		return "https://servicios1.afip.gov.ar/wsfev1/service.asmx"
	case Testing:
		return "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
	}
	panic("invalid environment")
}

func (e Environment) Name() string {
	switch e {
	case Production:
		return "production"
	case Testing:
		return "testing"
	}
	panic("invalid environment")
}

func (e *Environment) UnmarshalText(text []byte) error {
	val := strings.ToLower(strings.TrimSpace(string(text)))

	switch val {
	case "production", "prod":
		*e = Production
	case "testing", "homo", "test":
		*e = Testing
	default:
		return fmt.Errorf("invalid AFIP_ENV: %q (allowed: production, testing)", val)
	}
	return nil
}
