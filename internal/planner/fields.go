package planner

// Field names shared by the draft, the validator's error map and the wire shape.
const (
	FieldPortfolioID       = "portfolioId"
	FieldChangeType        = "changeType"
	FieldDate              = "date"
	FieldAmount            = "amount"
	FieldTargetAllocations = "targetAllocations"
	FieldDescription       = "description"
	FieldFrequency         = "frequency"
	FieldInterval          = "interval"
	FieldDaysOfWeek        = "daysOfWeek"
	FieldMonthlyRule       = "monthlyRule"
	FieldDayOfMonth        = "dayOfMonth"
	FieldMonthOrdinal      = "monthOrdinal"
	FieldMonthOrdinalDay   = "monthOrdinalDay"
	FieldMonthOfYear       = "monthOfYear"
	FieldEndsOnType        = "endsOnType"
	FieldEndsOnOccurrences = "endsOnOccurrences"
	FieldEndsOnDate        = "endsOnDate"
)
