package email

const (
	subjectQuoteProvidedFmt = "Your quote for job %s is ready"
	subjectJobCollectedFmt  = "Job %s has been collected"
	subjectJobCompletedFmt  = "Job %s is complete"
)
