package report

const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskVeryHigh = "very high - do not use -"
)

// RiskAssessment is the language model review of one license text.
type RiskAssessment struct {
	LicenseTitle       string `json:"licenseTitle"`
	Level              string `json:"level"`
	Reason             string `json:"reason"`
	CredentialRequired bool   `json:"credentialOrNot"`
	CredentialLicense  string `json:"credentialLicenseName"`
	SourceCodeRequired bool   `json:"sourceCodeRequired"`
}

// NormalizeRiskLevel maps free-form model output onto the four known levels.
// Unknown input is treated as high.
func NormalizeRiskLevel(level string) string {
	switch level {
	case RiskLow, "Low", "LOW":
		return RiskLow
	case RiskMedium, "Medium", "MEDIUM":
		return RiskMedium
	case RiskHigh, "High", "HIGH":
		return RiskHigh
	case RiskVeryHigh, "very high", "Very High", "VERY HIGH":
		return RiskVeryHigh
	}
	return RiskHigh
}
