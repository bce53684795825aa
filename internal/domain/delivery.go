package domain

// Delivery reports the outcome of a verification email send.
// A failed delivery never undoes the credential write that preceded it.
type Delivery struct {
	To   string `json:"-"`
	Sent bool   `json:"sent"`
	Err  error  `json:"-"`
}

// Failed reports whether a send was attempted and did not succeed.
func (d Delivery) Failed() bool {
	return !d.Sent && d.Err != nil
}
