package mail

type NewLeadEmailData struct {
	ProspectID     string
	CompanyName    string
	SirenNumber    string
	ActivityType   string
	ContactName    string
	Email          string
	Phone          string
	CompletionRate int
	SubmittedAt    string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	SalesTo  string
}
