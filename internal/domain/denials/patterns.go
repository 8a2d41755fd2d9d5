package denials

// DenialPattern maps denial-reason phrases to a category with appeal
// guidance. Patterns are matched in declaration order, first match wins.
type DenialPattern struct {
	Category         string   `json:"category"`
	Keywords         []string `json:"keywords"`
	SuccessRate      int      `json:"success_rate"`
	KeyArguments     []string `json:"key_arguments"`
	SuggestedActions []string `json:"suggested_actions"`
}

// patterns is the ordered matching table. New denial categories are added
// here, not in control flow.
var patterns = []DenialPattern{
	{
		Category:    "medical_necessity",
		Keywords:    []string{"medical necessity", "not medically necessary", "medically unnecessary"},
		SuccessRate: 62,
		KeyArguments: []string{
			"The treating therapist documented objective functional deficits supporting skilled intervention",
			"The plan of care follows established clinical practice guidelines for this diagnosis",
			"Documented progress toward measurable goals demonstrates the services are effective",
		},
		SuggestedActions: []string{
			"Attach the evaluation report and most recent progress notes",
			"Include a letter of medical necessity from the referring physician",
			"Cite the payer's own medical policy criteria that the documentation satisfies",
		},
	},
	{
		Category:    "not_covered",
		Keywords:    []string{"not covered", "non-covered", "noncovered", "exclusion", "excluded"},
		SuccessRate: 35,
		KeyArguments: []string{
			"The billed service falls within the plan's covered habilitative/rehabilitative benefit",
			"The policy exclusion cited does not apply to the documented diagnosis",
		},
		SuggestedActions: []string{
			"Request the specific plan language relied on for the exclusion",
			"Verify benefits and obtain the summary plan description",
			"Consider reclassifying under an equivalent covered code if clinically accurate",
		},
	},
	{
		Category:    "auth_missing",
		Keywords:    []string{"authorization", "prior auth", "pre-auth", "preauth", "auth not obtained"},
		SuccessRate: 55,
		KeyArguments: []string{
			"Services were initiated under urgent clinical need where delay would compromise outcomes",
			"Retroactive authorization is warranted given the documented medical necessity",
			"The provider made good-faith efforts to verify authorization requirements",
		},
		SuggestedActions: []string{
			"Submit a retroactive authorization request with supporting clinicals",
			"Document the eligibility/authorization verification attempts and dates",
			"Ask for a peer-to-peer review with the plan medical director",
		},
	},
	{
		Category:    "coding_error",
		Keywords:    []string{"coding", "incorrect code", "invalid code", "modifier", "code combination"},
		SuccessRate: 70,
		KeyArguments: []string{
			"The billed CPT codes accurately reflect the documented services per CPT coding guidance",
			"The code and modifier combination is consistent with NCCI edits for these services",
		},
		SuggestedActions: []string{
			"Review the claim against current CPT and payer-specific coding guidance",
			"Submit a corrected claim if a coding discrepancy is confirmed",
			"Include the session documentation supporting each billed code",
		},
	},
	{
		Category:    "duplicate",
		Keywords:    []string{"duplicate"},
		SuccessRate: 75,
		KeyArguments: []string{
			"The services billed are distinct encounters on separate dates or separate sessions",
			"Documentation shows unique service times for each billed line",
		},
		SuggestedActions: []string{
			"Provide session notes showing distinct service times",
			"Append the appropriate modifier for repeat procedures if applicable",
		},
	},
	{
		Category:    "timely_filing",
		Keywords:    []string{"timely filing", "filing limit", "untimely", "past the deadline"},
		SuccessRate: 28,
		KeyArguments: []string{
			"The original claim was submitted within the contractual filing period",
			"Delays were caused by coordination-of-benefits processing outside the provider's control",
		},
		SuggestedActions: []string{
			"Attach proof of timely submission (clearinghouse acceptance reports)",
			"Document any payer-caused delays or eligibility discrepancies",
		},
	},
	{
		Category:    "eligibility",
		Keywords:    []string{"eligibility", "not eligible", "coverage terminated", "member not found"},
		SuccessRate: 45,
		KeyArguments: []string{
			"Eligibility was verified on the date of service with the plan's own verification system",
			"The member's coverage was active per the verification reference number on file",
		},
		SuggestedActions: []string{
			"Attach the eligibility verification record and reference number",
			"Confirm the member ID and plan group against the card on file",
		},
	},
	{
		Category:    "bundled",
		Keywords:    []string{"bundled", "inclusive", "incidental", "global period"},
		SuccessRate: 50,
		KeyArguments: []string{
			"The services are separately identifiable and not components of a single procedure",
			"Documentation supports distinct skilled interventions for each billed code",
		},
		SuggestedActions: []string{
			"Apply the appropriate distinct-procedure modifier with supporting notes",
			"Cite NCCI guidance permitting separate reporting for these code pairs",
		},
	},
}

// otherPattern is the fallback for unmatched, empty, or missing input.
var otherPattern = DenialPattern{
	Category:    "other",
	Keywords:    nil,
	SuccessRate: 40,
	KeyArguments: []string{
		"The services were medically necessary and properly documented",
		"All billing requirements were met at the time of submission",
	},
	SuggestedActions: []string{
		"Contact the payer for a detailed explanation of the denial",
		"Request a copy of the clinical rationale used in the determination",
	},
}

// followUpTips carries category-specific guidance surfaced alongside the
// letter, keyed by category. Not part of the letter body.
var followUpTips = map[string][]string{
	"medical_necessity": {
		"Follow up within 15 days if no acknowledgment is received",
		"Escalate to external review if the internal appeal is upheld",
	},
	"not_covered": {
		"Ask the family to request plan documents from their employer",
		"Check for state habilitative-services mandates that may apply",
	},
	"auth_missing": {
		"Set up authorization tracking for this payer going forward",
		"Calendar the retro-auth decision deadline",
	},
	"coding_error": {
		"Audit recent claims to this payer for the same code combination",
	},
	"duplicate": {
		"Check the clearinghouse for accidental double submission",
	},
	"timely_filing": {
		"Pull the original acceptance report before calling the payer",
	},
	"eligibility": {
		"Re-verify coverage before the next scheduled visit",
	},
	"bundled": {
		"Review payer bundling policy for this code pair",
	},
	"other": {
		"Call the payer provider line and request denial specifics",
	},
}

// FollowUpTips returns post-appeal guidance for a denial category.
func FollowUpTips(category string) []string {
	if tips, ok := followUpTips[category]; ok {
		return tips
	}
	return followUpTips["other"]
}
