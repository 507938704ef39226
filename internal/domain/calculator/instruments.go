package calculator

import "fmt"

var (
	frequencyScale = []Option{
		{0, "Not at all"},
		{1, "Several days"},
		{2, "More than half the days"},
		{3, "Nearly every day"},
	}
	zeroToFour  = numericScale(0, 4)
	zeroToThree = numericScale(0, 3)
	oneToSeven  = numericScale(1, 7)
	yesNo       = []Option{{0, "No"}, {1, "Yes"}}
	auditSparse = []Option{{0, "No"}, {2, "Yes, but not in the last year"}, {4, "Yes, during the last year"}}
)

func numericScale(lo, hi int) []Option {
	out := make([]Option, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, Option{Value: v, Label: fmt.Sprint(v)})
	}
	return out
}

func scaled(scale []Option, labels ...string) []Item {
	out := make([]Item, len(labels))
	for i, l := range labels {
		out[i] = Item{Label: l, Options: scale}
	}
	return out
}

// placeholders builds items for instruments whose wording is licensed.
func placeholders(prefix string, n int, scale []Option) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{Label: fmt.Sprintf("%s Item %d", prefix, i+1), Options: scale}
	}
	return out
}

func ranged(prefix string, maxima ...int) []Item {
	out := make([]Item, len(maxima))
	for i, m := range maxima {
		out[i] = Item{Label: fmt.Sprintf("%s Item %d", prefix, i+1), Min: 0, Max: m}
	}
	return out
}

func instruments(opts Options) []*Instrument {
	audit := &Instrument{
		ID:          "audit",
		Name:        "AUDIT",
		Description: "Alcohol Use Disorders Identification Test",
		Category:    "Substance Use",
		Type:        TypeItems,
		Items: append(scaled(zeroToFour,
			"How often do you have a drink containing alcohol?",
			"How many drinks containing alcohol do you have on a typical day when you are drinking?",
			"How often do you have six or more drinks on one occasion?",
			"How often during the last year have you found that you were not able to stop drinking once you had started?",
			"How often during the last year have you failed to do what was normally expected from you because of drinking?",
			"How often during the last year have you needed a first drink in the morning to get yourself going after a heavy drinking session?",
			"How often during the last year have you had a feeling of guilt or remorse after drinking?",
			"How often during the last year have you been unable to remember what happened the night before because of drinking?",
		), scaled(auditSparse,
			"Have you or someone else been injured as a result of your drinking?",
			"Has a relative, friend, doctor, or other health worker been concerned about your drinking or suggested you cut down?",
		)...),
		Bands: []Band{
			{Min: 0, Max: opts.AuditCutoff - 1, Label: "Low risk"},
			{Min: opts.AuditCutoff, Max: 14, Label: "Hazardous or harmful use"},
			{Min: 15, Max: 40, Label: "Possible dependence"},
		},
		Note:     fmt.Sprintf("Cutoffs vary by setting; this deployment flags hazardous use at %d.", opts.AuditCutoff),
		Citation: "Babor TF et al. AUDIT: Guidelines for Use in Primary Care. WHO, 2001.",
	}

	pcptsd5 := &Instrument{
		ID:          "pcptsd5",
		Name:        "PC-PTSD-5",
		Description: "Primary Care PTSD Screen for DSM-5",
		Category:    "Trauma",
		Type:        TypeItems,
		Items: scaled(yesNo,
			"In the past month, have you had nightmares about the event or thought about it when you did not want to?",
			"Tried hard not to think about the event or went out of your way to avoid situations that reminded you of it?",
			"Been constantly on guard, watchful, or easily startled?",
			"Felt numb or detached from people, activities, or your surroundings?",
			"Felt guilty or unable to stop blaming yourself or others for the event or its consequences?",
		),
		Bands: []Band{
			{Min: 0, Max: opts.PCPTSD5Cutoff - 1, Label: "Negative screen"},
			{Min: opts.PCPTSD5Cutoff, Max: 5, Label: "Positive screen", Action: "Further assessment for PTSD"},
		},
		Note:     fmt.Sprintf("Cutpoint is often 3 or 4 depending on setting; this deployment uses %d.", opts.PCPTSD5Cutoff),
		Citation: "Prins A et al. J Gen Intern Med. 2016;31(10):1206-1211.",
	}

	return []*Instrument{
		{
			ID:          "phq9",
			Name:        "PHQ-9",
			Description: "Patient Health Questionnaire, depression severity over the last two weeks",
			Category:    "Depression",
			Type:        TypeItems,
			Items: scaled(frequencyScale,
				"Little interest or pleasure in doing things",
				"Feeling down, depressed, or hopeless",
				"Trouble falling or staying asleep, or sleeping too much",
				"Feeling tired or having little energy",
				"Poor appetite or overeating",
				"Feeling bad about yourself or that you are a failure or have let yourself or your family down",
				"Trouble concentrating on things, such as reading or watching television",
				"Moving or speaking so slowly that other people could have noticed, or the opposite, being fidgety or restless",
				"Thoughts that you would be better off dead or of hurting yourself in some way",
			),
			Bands: []Band{
				{Min: 0, Max: 4, Label: "None-minimal", Action: "Continue monitoring"},
				{Min: 5, Max: 9, Label: "Mild", Action: "Consider counseling"},
				{Min: 10, Max: 14, Label: "Moderate", Action: "Treatment recommended"},
				{Min: 15, Max: 19, Label: "Moderately severe", Action: "Active treatment"},
				{Min: 20, Max: 27, Label: "Severe", Action: "Immediate treatment"},
			},
			Citation: "Kroenke K, Spitzer RL, Williams JB. J Gen Intern Med. 2001;16(9):606-613.",
			riskItem: 9,
			riskNote: "Item 9 endorsed: assess suicide risk directly.",
		},
		{
			ID:          "gad7",
			Name:        "GAD-7",
			Description: "Generalized Anxiety Disorder scale, anxiety severity over the last two weeks",
			Category:    "Anxiety",
			Type:        TypeItems,
			Items: scaled(frequencyScale,
				"Feeling nervous, anxious, or on edge",
				"Not being able to stop or control worrying",
				"Worrying too much about different things",
				"Trouble relaxing",
				"Being so restless that it is hard to sit still",
				"Becoming easily annoyed or irritable",
				"Feeling afraid as if something awful might happen",
			),
			Bands: []Band{
				{Min: 0, Max: 4, Label: "Minimal", Action: "Continue monitoring"},
				{Min: 5, Max: 9, Label: "Mild", Action: "Counseling may help"},
				{Min: 10, Max: 14, Label: "Moderate", Action: "Treatment recommended"},
				{Min: 15, Max: 21, Label: "Severe", Action: "Active treatment"},
			},
			Citation: "Spitzer RL et al. Arch Intern Med. 2006;166(10):1092-1097.",
		},
		audit,
		pcptsd5,
		{
			ID:          "pcl5",
			Name:        "PCL-5",
			Description: "PTSD Checklist for DSM-5",
			Category:    "Trauma",
			Type:        TypeItems,
			Items:       placeholders("PCL-5", 20, zeroToFour),
			Bands: []Band{
				{Min: 0, Max: 30, Label: "Below common cutpoint"},
				{Min: 31, Max: 80, Label: "At or above common cutpoint", Action: "Further assessment for PTSD"},
			},
			RestrictedText: true,
			Note:           "Common cutpoint is 31-33; use official PCL-5 item text.",
		},
		{
			ID:          "bprs",
			Name:        "BPRS",
			Description: "Brief Psychiatric Rating Scale",
			Category:    "Psychosis",
			Type:        TypeItems,
			Items: scaled(oneToSeven,
				"Somatic concern",
				"Anxiety",
				"Emotional withdrawal",
				"Conceptual disorganization",
				"Guilt feelings",
				"Tension",
				"Mannerisms and posturing",
				"Grandiosity",
				"Depressive mood",
				"Hostility",
				"Suspiciousness",
				"Hallucinatory behavior",
				"Motor retardation",
				"Uncooperativeness",
				"Unusual thought content",
				"Blunted affect",
				"Excitement",
				"Disorientation",
			),
			Note: "Scores 1-7 per item.",
		},
		{
			ID:             "ymrs",
			Name:           "YMRS",
			Description:    "Young Mania Rating Scale",
			Category:       "Bipolar",
			Type:           TypeItems,
			Items:          ranged("YMRS", 4, 4, 8, 8, 4, 4, 4, 8, 4, 4, 8),
			RestrictedText: true,
			Note:           "Use official YMRS item text.",
		},
		{
			ID:          "ybocs",
			Name:        "Y-BOCS",
			Description: "Yale-Brown Obsessive Compulsive Scale",
			Category:    "Obsessive-Compulsive",
			Type:        TypeItems,
			Items:       placeholders("Y-BOCS", 10, zeroToFour),
			Bands: []Band{
				{Min: 0, Max: 7, Label: "Subclinical"},
				{Min: 8, Max: 15, Label: "Mild"},
				{Min: 16, Max: 23, Label: "Moderate"},
				{Min: 24, Max: 31, Label: "Severe"},
				{Min: 32, Max: 40, Label: "Extreme"},
			},
			RestrictedText: true,
			Note:           "Use licensed Y-BOCS item text.",
		},
		{
			ID:             "ciwa",
			Name:           "CIWA-Ar",
			Description:    "Clinical Institute Withdrawal Assessment for Alcohol, revised",
			Category:       "Substance Use",
			Type:           TypeItems,
			Items:          ranged("CIWA-Ar", 7, 7, 7, 7, 7, 7, 7, 7, 7, 4),
			RestrictedText: true,
			Bands: []Band{
				{Min: 0, Max: 8, Label: "Mild withdrawal"},
				{Min: 9, Max: 15, Label: "Moderate withdrawal"},
				{Min: 16, Max: 67, Label: "Severe withdrawal"},
			},
			Note: "Use official CIWA-Ar item text.",
		},
		{
			ID:             "bfcrs",
			Name:           "BFCRS",
			Description:    "Bush-Francis Catatonia Rating Scale",
			Category:       "Catatonia",
			Type:           TypeItems,
			Items:          placeholders("BFCRS", 23, zeroToThree),
			RestrictedText: true,
			Note:           "Use official BFCRS item text.",
		},
		{
			ID:             "panss",
			Name:           "PANSS",
			Description:    "Positive and Negative Syndrome Scale",
			Category:       "Psychosis",
			Type:           TypeItems,
			Items:          placeholders("PANSS", 30, oneToSeven),
			RestrictedText: true,
			Note:           "PANSS is licensed; use authorized item text.",
		},
		{
			ID:          "cssrs",
			Name:        "C-SSRS Screener",
			Description: "Columbia Suicide Severity Rating Scale, screening version",
			Category:    "Suicide Risk",
			Type:        TypeItems,
			Items: scaled(yesNo,
				"Wish to be dead",
				"Non-specific active suicidal thoughts",
				"Active suicidal ideation with any methods (not plan) without intent to act",
				"Active suicidal ideation with some intent to act, without specific plan",
				"Active suicidal ideation with specific plan and intent",
				"Suicidal behavior (actual, interrupted, or aborted attempt, or preparatory behavior)",
			),
			Note: "Use official wording if required by your institution.",
		},
		{
			ID:          "bmi",
			Name:        "BMI",
			Description: "Body mass index from weight and height",
			Category:    "General",
			Type:        TypeFormula,
			Note:        "Underweight below 18.5, normal weight 18.5-24.9, overweight 25-29.9, obese 30 and above.",
		},
		{
			ID:          "moca",
			Name:        "MoCA",
			Description: "Montreal Cognitive Assessment",
			Category:    "Cognition",
			Type:        TypeExternal,
			URL:         "https://mocacognition.com/",
			Note:        "External tool; a license is required.",
		},
	}
}
