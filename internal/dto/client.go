package dto

// ClientParentRequest is one guardian contact.
type ClientParentRequest struct {
	FullName string  `json:"full_name" validate:"required,max=200"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Relation *string `json:"relation,omitempty" validate:"omitempty,max=40"`
}

// ClientRequest captures create/update payloads for clients. Parents
// replace the stored guardian list when present.
type ClientRequest struct {
	FullName       string                `json:"full_name" validate:"required,max=200"`
	BirthDate      string                `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Phone          *string               `json:"phone,omitempty" validate:"omitempty,max=40"`
	DocumentType   *string               `json:"document_type,omitempty" validate:"omitempty,max=60"`
	DocumentNumber *string               `json:"document_number,omitempty" validate:"omitempty,max=60"`
	Notes          *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Parents        []ClientParentRequest `json:"parents,omitempty" validate:"omitempty,dive"`
}
