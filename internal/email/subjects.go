package email

const (
	subjectCoordinatorApplicationFmt = "New application for %s"
	subjectIntakeSummary             = "New eligibility intake submitted"
)
