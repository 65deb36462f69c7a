package checkout

import (
	"regexp"
	"strings"

	"github.com/campomarket/storefront/internal/domain/order"
)

// rifPattern matches a fiscal registry number such as V-12345678 or
// J-123456789.
var rifPattern = regexp.MustCompile(`^[VEJPG]-\d{7,9}$`)

var _ FiscalForm = (*BasicFiscalForm)(nil)

// BasicFiscalForm checks presence and the tax id format.
type BasicFiscalForm struct{}

// Validate returns field-keyed messages for invalid fiscal data.
func (BasicFiscalForm) Validate(data FiscalData) FieldErrors {
	fields := FieldErrors{}
	if strings.TrimSpace(data.LegalName) == "" {
		fields["legal_name"] = "legal name is required"
	}
	if !rifPattern.MatchString(strings.ToUpper(strings.TrimSpace(data.TaxID))) {
		fields["tax_id"] = "tax id must look like V-12345678"
	}
	if strings.TrimSpace(data.FiscalAddress) == "" {
		fields["fiscal_address"] = "fiscal address is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

var _ DeliveryForm = (*BasicDeliveryForm)(nil)

// BasicDeliveryForm checks that the destination is complete enough to
// dispatch.
type BasicDeliveryForm struct{}

// Validate returns field-keyed messages for an incomplete destination.
func (BasicDeliveryForm) Validate(info order.Delivery) FieldErrors {
	fields := FieldErrors{}
	if strings.TrimSpace(info.Recipient) == "" {
		fields["recipient"] = "recipient is required"
	}
	if strings.TrimSpace(info.Phone) == "" {
		fields["phone"] = "phone is required"
	}
	if strings.TrimSpace(info.State) == "" {
		fields["state"] = "state is required"
	}
	if strings.TrimSpace(info.City) == "" {
		fields["city"] = "city is required"
	}
	if strings.TrimSpace(info.Address) == "" {
		fields["address"] = "address is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
