package email

const (
	subjectBookingScheduled = "Your cleaning is scheduled"
	subjectBookingCompleted = "Your cleaning is complete"
	subjectServiceReminder  = "Reminder: your cleaning is tomorrow"
	subjectIntakeReceived   = "We received your request"
)
