package domain

// Customer is the capability interface implemented by whatever aggregate the
// embedding application bills (a user, an organization, ...). The sync services
// depend only on this interface, never on a concrete type.
type Customer interface {
	SetProviderID(providerID string)
	ProviderID() string
	SetCard(card *Card)
	Card() *Card
	SetDiscount(discount *Discount)
	Discount() *Discount
}

// VatCustomer is an optional extension of Customer for applications that carry
// VAT data; invoices mirror the number and country as an immutable snapshot
type VatCustomer interface {
	Customer
	VatNumber() string
	VatCountry() string
}

// Billable is an aggregate that owns at most one active subscription at a time
// (a project, an account, ...). Implemented by the embedding application.
type Billable interface {
	SetSubscription(subscription *Subscription)
	Subscription() *Subscription
}

// CustomerAccount is a ready-made Customer implementation that applications can
// embed into their own aggregate instead of wiring the interface by hand
type CustomerAccount struct {
	providerID string
	card       *Card
	discount   *Discount
}

func (c *CustomerAccount) SetProviderID(providerID string) { c.providerID = providerID }

func (c *CustomerAccount) ProviderID() string { return c.providerID }

func (c *CustomerAccount) SetCard(card *Card) { c.card = card }

func (c *CustomerAccount) Card() *Card { return c.card }

func (c *CustomerAccount) SetDiscount(discount *Discount) { c.discount = discount }

func (c *CustomerAccount) Discount() *Discount { return c.discount }
