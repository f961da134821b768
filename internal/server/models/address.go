package models

import "time"

// Address is a shipping address owned by exactly one account.
type Address struct {
	ID          string
	AccountID   string
	FullName    string
	AddressLine string
	City        string
	State       string
	ZipCode     string
	Phone       string
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AddressInput carries the caller-editable fields of an address.
type AddressInput struct {
	FullName    string
	AddressLine string
	City        string
	State       string
	ZipCode     string
	Phone       string
	IsDefault   bool
}

// Apply copies the editable fields of in onto a.
func (a *Address) Apply(in AddressInput) {
	a.FullName = in.FullName
	a.AddressLine = in.AddressLine
	a.City = in.City
	a.State = in.State
	a.ZipCode = in.ZipCode
	a.Phone = in.Phone
	a.IsDefault = in.IsDefault
}
