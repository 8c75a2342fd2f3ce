package eligibility

import (
	"fmt"
	"strconv"
)

const (
	aasaraMinAge     = 57
	kalyanaMinAge    = 18
	annualIncomeCeil = 200000
)

// Field names reported back to the user when a fact is missing.
const (
	fieldAge       = "వయస్సు"
	fieldIncome    = "కుటుంబ వార్షిక ఆదాయం"
	fieldLandAcres = "వ్యవసాయ భూమి ఎకరాలు"
	fieldBrideAge  = "వధువు వయస్సు"
)

// DefaultRules are the rules for the schemes in the embedded catalog.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		"aasara_pension":  AasaraPension,
		"rythu_bandhu":    RythuBandhu,
		"kalyana_lakshmi": KalyanaLakshmi,
	}
}

func AasaraPension(in Input) Verdict {
	var v Verdict
	if in.Age == nil {
		v.Missing = append(v.Missing, fieldAge)
	}
	if in.Income == nil {
		v.Missing = append(v.Missing, fieldIncome)
	}
	if len(v.Missing) > 0 {
		return v
	}

	if *in.Age < aasaraMinAge {
		v.Reasons = append(v.Reasons, fmt.Sprintf("మీ వయస్సు %d సంవత్సరాలు మాత్రమే, అవసరమైన కనిష్ట వయస్సు %d సంవత్సరాలు.", *in.Age, aasaraMinAge))
	}
	if *in.Income > annualIncomeCeil {
		v.Reasons = append(v.Reasons, fmt.Sprintf("మీ కుటుంబ ఆదాయం ₹%d ఉండటం వల్ల ఆదాయ పరిమితి దాటిపోయింది.", *in.Income))
	}
	if len(v.Reasons) == 0 {
		v.Message = "మీ వివరాల ప్రకారం మీరు ఆసరా పెన్షన్‌కు అర్హులు కావచ్చు."
	}
	return v
}

func RythuBandhu(in Input) Verdict {
	if in.LandAcres == nil {
		return Verdict{Missing: []string{fieldLandAcres}}
	}
	if *in.LandAcres <= 0 {
		return Verdict{Reasons: []string{"రైతు బంధు కోసం తప్పనిసరిగా వ్యవసాయ భూమి ఉండాలి."}}
	}

	acres := strconv.FormatFloat(*in.LandAcres, 'f', -1, 64)
	return Verdict{Message: fmt.Sprintf("మీరు ఉన్న %s ఎకరాల భూమిపై రైతు బంధు సాయం పొందే అవకాశం ఉంది.", acres)}
}

// KalyanaLakshmi reads Age as the bride's age.
func KalyanaLakshmi(in Input) Verdict {
	var v Verdict
	if in.Age == nil {
		v.Missing = append(v.Missing, fieldBrideAge)
	}
	if in.Income == nil {
		v.Missing = append(v.Missing, fieldIncome)
	}
	if len(v.Missing) > 0 {
		return v
	}

	if *in.Age < kalyanaMinAge {
		v.Reasons = append(v.Reasons, "వధువు వయస్సు కనీసం 18 సంవత్సరాలు ఉండాలి.")
	}
	if *in.Income > annualIncomeCeil {
		v.Reasons = append(v.Reasons, "తల్లిదండ్రుల వార్షిక ఆదాయం 2 లక్షలకు లోపుగా ఉండాలి.")
	}
	if len(v.Reasons) == 0 {
		v.Message = "మీ వివరాల ప్రకారం మీరు కళ్యాణ లక్ష్మికి అర్హులు కావచ్చు."
	}
	return v
}
