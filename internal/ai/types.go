package ai

// StructuredCV is the machine-extracted representation of a resume. The
// extraction prompt pins the model to exactly this shape; anything that
// fails to unmarshal into it is rejected as an upstream failure.
type StructuredCV struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Location       string          `json:"location"`
	Summary        string          `json:"summary"`
	Skills         []string        `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Languages      []string        `json:"languages"`
	GithubURL      string          `json:"githubUrl"`
	LinkedinURL    string          `json:"linkedinUrl"`
	PortfolioURL   string          `json:"portfolioUrl"`
}

type Experience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

type Education struct {
	Degree      string `json:"degree"`
	Major       string `json:"major"`
	Institution string `json:"institution"`
	StartYear   int    `json:"startYear"`
	EndYear     int    `json:"endYear"`
}

type Project struct {
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	ProjectURL   string   `json:"projectUrl"`
}

type Certification struct {
	Name       string `json:"name"`
	Issuer     string `json:"issuer"`
	IssueDate  string `json:"issueDate"`
	ExpiryDate string `json:"expiryDate"`
}

// JobInfo carries the job fields AI prompts need.
type JobInfo struct {
	Title           string
	CompanyName     string
	Description     string
	Requirements    string
	TechStack       []string
	ExperienceLevel string
}

// TrendsReport summarizes the current job market from recent postings.
type TrendsReport struct {
	TopSkills            []string `json:"topSkills"`
	AverageSalary        string   `json:"averageSalary"`
	PopularRoles         []string `json:"popularRoles"`
	EmergingTechnologies []string `json:"emergingTechnologies"`
	Insights             []string `json:"insights"`
}
