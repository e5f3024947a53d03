package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

func buildParseCVPrompt(cvText string) string {
	return fmt.Sprintf(`You are an expert CV parser. Extract the following information from the CV text below and return it in JSON format.

Required fields:
- name (string)
- email (string)
- phone (string)
- location (string)
- summary (string): A brief professional summary
- skills (array of strings): Technical skills
- experience (array of objects):
  - title (string)
  - company (string)
  - startDate (string in YYYY-MM format)
  - endDate (string in YYYY-MM format or "Present")
  - description (string)
  - technologies (array of strings)
- education (array of objects):
  - degree (string)
  - major (string)
  - institution (string)
  - startYear (number)
  - endYear (number or null if ongoing)
- projects (array of objects):
  - name (string)
  - role (string)
  - description (string)
  - technologies (array of strings)
  - startDate (string)
  - endDate (string or "Present")
  - projectUrl (string or null)
- certifications (array of objects):
  - name (string)
  - issuer (string)
  - issueDate (string)
  - expiryDate (string or null)
- languages (array of strings)
- githubUrl (string or null)
- linkedinUrl (string or null)
- portfolioUrl (string or null)

Return ONLY valid JSON without any markdown formatting or code blocks.

CV Text:
%s`, cvText)
}

func buildCoverLetterPrompt(cv *StructuredCV, job JobInfo) string {
	name := cv.Name
	if name == "" {
		name = "the candidate"
	}

	experience := make([]string, 0, len(cv.Experience))
	for _, e := range cv.Experience {
		experience = append(experience, fmt.Sprintf("%s at %s", e.Title, e.Company))
	}
	education := make([]string, 0, len(cv.Education))
	for _, e := range cv.Education {
		education = append(education, fmt.Sprintf("%s in %s from %s", e.Degree, e.Major, e.Institution))
	}

	return fmt.Sprintf(`You are a professional career advisor. Write a compelling, personalized cover letter for a job application.

Candidate Information (from CV):
- Name: %s
- Skills: %s
- Experience: %s
- Education: %s

Job Information:
- Position: %s
- Company: %s
- Description: %s
- Requirements: %s

Instructions:
1. Write a professional cover letter that is STRICTLY between 100-1000 characters (NOT words, characters!)
2. Highlight how the candidate's experience matches the job requirements
3. Mention specific skills that align with the position
4. Show enthusiasm for the role and company
5. Use professional yet personable tone
6. Write in first person from the candidate's perspective
7. Be concise and impactful - every sentence must count

CRITICAL: The output MUST be between 100-1000 characters. This is a hard requirement.

Return ONLY the cover letter text without any formatting, greetings like "Dear Hiring Manager" (we'll add that), or signature (we'll add that too). Just the main body paragraphs.`,
		name,
		strings.Join(cv.Skills, ", "),
		strings.Join(experience, ", "),
		strings.Join(education, ", "),
		job.Title,
		job.CompanyName,
		job.Description,
		job.Requirements,
	)
}

func buildMatchPrompt(skills []string, experience []Experience, job JobInfo) string {
	expJSON, _ := json.Marshal(experience)

	return fmt.Sprintf(`You are an expert IT recruiter. Calculate the match percentage between a candidate and a job posting.

Candidate Skills: %s
Candidate Experience: %s

Job Requirements: %s
Job Tech Stack: %s

Analyze:
1. Skills overlap (40%% weight)
2. Experience relevance (30%% weight)
3. Technology match (30%% weight)

Return ONLY a number between 0 and 100 representing the match percentage. No explanation, just the number.`,
		strings.Join(skills, ", "),
		string(expJSON),
		job.Requirements,
		strings.Join(job.TechStack, ", "),
	)
}

func buildSuggestionsPrompt(cv *StructuredCV) string {
	cvJSON, _ := json.MarshalIndent(cv, "", "  ")

	return fmt.Sprintf(`You are a professional CV consultant. Analyze this CV data and provide 5-7 specific, actionable improvement suggestions.

CV Data:
%s

Return ONLY a JSON array of suggestion strings.
Example: ["Add quantifiable achievements to your experience descriptions", "Include more technical details in project descriptions"]`, string(cvJSON))
}

func buildQuestionsPrompt(job JobInfo) string {
	return fmt.Sprintf(`Generate 10 relevant interview questions for the following position:

Job Title: %s
Tech Stack: %s
Experience Level: %s

Include a mix of technical, behavioral, and problem-solving questions.
Return ONLY a JSON array of question strings.`,
		job.Title,
		strings.Join(job.TechStack, ", "),
		job.ExperienceLevel,
	)
}

func buildTrendsPrompt(jobs []JobInfo) string {
	lines := make([]string, 0, len(jobs))
	for _, j := range jobs {
		lines = append(lines, fmt.Sprintf("%s - %s - %s", j.Title, strings.Join(j.TechStack, ", "), j.ExperienceLevel))
	}

	return fmt.Sprintf(`Analyze these job postings and provide insights on current IT job market trends.

Jobs:
%s

Return a JSON object with:
- topSkills: array of most in-demand skills
- averageSalary: estimated average salary range
- popularRoles: array of most common job titles
- emergingTechnologies: array of emerging tech mentioned
- insights: array of 3-5 key trend insights

Return ONLY valid JSON.`, strings.Join(lines, "\n"))
}
