package domain

// Account is an end user known to the business system of record. Accounts
// are created elsewhere; this service only reads them and maintains the
// chat-id link. An account may exist without a chat id (pre-registration)
// or without a phone (guest).
type Account struct {
	ID     int64
	Name   *string
	Phone  *string
	ChatID *int64
}

// DisplayName returns the account name, or the provided fallback for
// guests and accounts registered under the placeholder name.
func (a *Account) DisplayName(fallback string) string {
	if a == nil || a.Name == nil || *a.Name == "" || *a.Name == "Гость" {
		return fallback
	}
	return *a.Name
}
