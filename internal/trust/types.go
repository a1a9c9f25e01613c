package trust

// Profile pins what a verifier expects of receipts from one gateway.
type Profile struct {
	ProfileID   string `yaml:"profile_id"`
	Gateway     string `yaml:"gateway"`
	PolicyHash  string `yaml:"policy_hash"`
	ConsentHash string `yaml:"consent_hash"`
}
