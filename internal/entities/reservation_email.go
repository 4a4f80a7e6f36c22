package entities

// ReservationEmailData feeds the notification templates.
type ReservationEmailData struct {
	UserName           string
	ReferenceCode      string
	SpaceName          string
	Status             string
	StartTimeFormatted string
	EndTimeFormatted   string
	AmountFormatted    string
	DeadlineFormatted  string
	Reason             string
	CurrentYear        int
}
