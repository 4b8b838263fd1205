package business

// Config describes the business the voice agent represents on a call.
// All fields are free text; empty fields fall back to the operator defaults
// via MergeDefaults. A Config is never mutated once a call has started.
type Config struct {
	Name            string `json:"name"`
	LegalName       string `json:"legalName"`
	BrandName       string `json:"brandName"`
	BrandVision     string `json:"brandVision"`
	Industry        string `json:"industry"`
	Products        string `json:"products"`
	ValueProps      string `json:"valueProps"`
	TargetCustomers string `json:"targetCustomers"`
	Tone            string `json:"tone"`
	WebsiteURL      string `json:"websiteUrl"`
}

// Defaults returns the operator's own business identity. It is used whole when a
// session was never configured, and field-by-field for configs with gaps, so the
// live agent never runs without an identity.
func Defaults() Config {
	return Config{
		Name:            "Gaia",
		LegalName:       "Invoca, Inc.",
		BrandName:       "Invoca",
		BrandVision:     "Empowering businesses to connect with their customers in more meaningful ways through AI-powered conversation intelligence, driving growth and enhancing customer experiences.",
		Industry:        "AI-Powered Revenue Execution and Conversation Intelligence",
		Products:        "Invoca offers AI-powered conversation intelligence solutions designed to connect marketing and sales teams, optimize the buying journey, and drive revenue. Key offerings include the Pro Plan (6,000 annual local or toll-free numbers, 5 custom Signals, dynamic number tracking, call recording, custom IVRs, offline conversion and revenue import, APIs and webhooks, real-time alerts), the Enterprise Plan (12,000 annual numbers, 50 custom Signals, enhanced digital data capture, advanced IVR features, SAML single sign-on, sandbox demo environment), Signal AI conversation analytics (keyword spotting, transcripts, redaction, AI call summaries, sentiment analysis), AI-powered Quality Management and agent coaching, PreSense real-time digital journey insights, and an extensive integration library including Salesforce CRM and Adobe Experience Cloud. Specific pricing details are available upon request.",
		ValueProps:      "Invoca stands out with its AI-driven conversation intelligence that seamlessly connects marketing and sales teams, providing real-time insights to optimize the buying journey and drive revenue. Deep integrations with leading technology platforms let businesses link paid media investments directly to revenue, improve digital engagement, and deliver exceptional buyer experiences.",
		TargetCustomers: "Enterprise-level businesses across automotive, financial services, healthcare, home services, insurance, retail, telecom, and travel & hospitality seeking to enhance marketing and sales performance through AI-powered conversation intelligence.",
		Tone:            "Professional yet approachable, tech-savvy without being intimidating. Communicates with clarity and confidence, emphasizing collaboration, innovation, and customer success.",
		WebsiteURL:      "invoca.com",
	}
}

// MergeDefaults returns a copy of c with every empty field filled from Defaults.
func (c Config) MergeDefaults() Config {
	d := Defaults()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.LegalName == "" {
		c.LegalName = d.LegalName
	}
	if c.BrandName == "" {
		c.BrandName = d.BrandName
	}
	if c.BrandVision == "" {
		c.BrandVision = d.BrandVision
	}
	if c.Industry == "" {
		c.Industry = d.Industry
	}
	if c.Products == "" {
		c.Products = d.Products
	}
	if c.ValueProps == "" {
		c.ValueProps = d.ValueProps
	}
	if c.TargetCustomers == "" {
		c.TargetCustomers = d.TargetCustomers
	}
	if c.Tone == "" {
		c.Tone = d.Tone
	}
	if c.WebsiteURL == "" {
		c.WebsiteURL = d.WebsiteURL
	}
	return c
}

// IsZero reports whether no field was ever set.
func (c Config) IsZero() bool {
	return c == Config{}
}
