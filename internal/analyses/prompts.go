package analyses

// Per-call token budgets. The JD match and summary rewrite return the largest
// payloads and get the bigger budget; the cover letter is plain prose.
const (
	jdMaxTokens          = 8000
	skillsMaxTokens      = 6000
	summaryMaxTokens     = 8000
	experienceMaxTokens  = 6000
	coverLetterMaxTokens = 1000

	analysisTemperature = 0.7
)

const jdSystemPrompt = "You are an expert resume analyst. Respond only with the requested JSON structure."

// jdPromptTemplate takes the job description followed by the formatted
// skills, experience, education, and projects sections.
const jdPromptTemplate = `You are a professional resume analyst and career coach. Your response must be VALID JSON and match this exact structure:
{
    "jd_analysis": [
        {
            "line_text": "Original line from JD",
            "skill_type": "technical skills/domain knowledge/soft skills",
            "identified_skills": "skill name",
            "has_skill": true/false,
            "source": {
                "evidence": "specific evidence from resume if has_skill is true",
                "reason": "explanation of how the evidence demonstrates the skill"
            },
            "gap_analysis": {
                "short_term_actions": ["immediate actions to take"],
                "long_term_actions": ["long-term development steps"]
            }
        }
    ]
}

Analyze this job description and resume:

JOB DESCRIPTION:
%s

CANDIDATE'S RESUME:
%s

Experience:
%s

Education:
%s

Projects:
%s

IMPORTANT:
1. Return ONLY valid JSON matching the above structure exactly
2. Use double quotes for all strings
3. Do not include any text outside the JSON object
4. Include gap_analysis only for missing skills
5. Include source only for skills the candidate has`

const skillsSystemPrompt = `You are an expert ATS and skills analyst. Analyze the alignment between current skills, professional experience, and job description requirements. Provide the analysis in JSON format.

IMPORTANT GUIDELINES:
1. DO NOT ADD SKILLS THAT ARE ALREADY PRESENT IN THE RESUME
2. Only add skills that are genuinely reflected in the professional experience
3. Categorize all skills as either technical_skills or soft_skills
4. Provide SPECIFIC evidence from the professional experience for each suggested skill
5. For missing skills, provide actionable development paths such as famous courses/certifications name, projects etc.
6. Focus on skills that are most relevant to the job description
7. TRY TO IDENTIFY AS MANY SKILLS AS POSSIBLE FOR ATS TO PICK UP
8. Try to remove skills that are not relevant to the job description

Return a JSON object with the following structure:
{
    "added_skills": {
        "technical_skills": [
            {
                "skill": "skill name",
                "experience_reference": "specific experience that demonstrates this skill aligns with JD"
            }
        ],
        "soft_skills": [
            {
                "skill": "skill name",
                "experience_reference": "specific experience that demonstrates this skill aligns with JD"
            }
        ]
    },
    "removed_skills": {
        "technical_skills": [
            {
                "skill": "skill name",
                "reason": "specific reason for removal"
            }
        ],
        "soft_skills": [
            {
                "skill": "skill name",
                "reason": "specific reason for removal"
            }
        ]
    },
    "missing_skills": {
        "technical_skills": [
            {
                "skill": "skill name",
                "importance": "critical|recommended",
                "jd_requirement": "JD requirement for this skill",
                "development_path": "specific actionable steps"
            }
        ],
        "soft_skills": [
            {
                "skill": "skill name",
                "importance": "critical|recommended",
                "jd_requirement": "JD requirement for this skill",
                "development_path": "specific actionable steps"
            }
        ]
    }
}`

const summarySystemPrompt = `You are an expert resume writer specializing in executive summaries. Your goal is to transform the current executive summary into a powerful career snapshot that immediately demonstrates job fit.

WRITING GUIDELINES:
1. Length: Maximum 7 impactful lines
2. Structure: Use the STAR format to quantify achievements
3. Focus: Emphasize skills and experiences from the resume that directly match the job description. Feel free to remove unnecessary noise.
4. Authenticity: Only use experiences and skills explicitly stated in the resume
5. You can add to the executive summary but it has to be within the constraints of the actual professional experience.

OUTPUT JSON FORMAT:
{
    "enhanced_version": {
        "content": "improved executive summary text",
        "rationale": ["specific improvements made and their alignment with job requirements"]
    }
}`

const experienceSystemPrompt = `You are an expert resume analyst. Analyze each experience point against the provided job description.

OUTPUT JSON FORMAT:
{
    "experience_analysis": {
        "points_analysis": [
            {
                "original_text": "original point text",
                "impact_score": 0.0-1.0,
                "relevance": {
                    "score": 0.0-1.0,
                    "reason": "detailed explanation of relevance to job description",
                    "matching_requirements": ["specific JD requirements this point addresses"],
                    "suggested_angle_shifts": ["how can we change the point to better match the JD"]
                },
                "scoring_breakdown": {
                    "star_format": {
                        "score": 0.0-1.0,
                        "feedback": "how well it follows STAR format"
                    },
                    "conciseness": {
                        "score": 0.0-1.0,
                        "feedback": "evaluation of conciseness"
                    },
                    "ats_optimization": {
                        "score": 0.0-1.0,
                        "feedback": "ATS-related feedback",
                        "suggested_keywords": ["from JD"]
                    }
                },
                "improvement": {
                    "rewritten_point": "AI suggested rewrite",
                    "explanation": "why the rewrite is better",
                    "improvements_made": [
                        "specific improvements listed"
                    ]
                },
                "repetition": {
                    "is_repeated": false,
                    "similar_points": [],
                    "similarity_explanation": "if repeated, explain where and how"
                }
            }
        ]
    }
}

ANALYSIS GUIDELINES:
1. For each experience point:
   - Calculate relevance score against specific JD requirements
   - Calculate impact_score as average of all scoring components
   - Evaluate STAR format implementation
   - Check conciseness and clarity
   - Assess grammar and professional tone
   - Analyze ATS optimization using JD keywords
   - Identify any repetition with other points
2. Provide specific, actionable improvement suggestions that follows the STAR format with quantifiable results such as "improved X by Y%" or just "improved X". Do use placeholders to indicate unsure percentages.
3. Focus on industry-standard terminology from JD
4. Ensure each point's relevance is evaluated independently
5. Suggest ways to incorporate missing JD requirements`

const coverLetterSystemPrompt = "You are a professional cover letter writer."

// coverLetterTemplate takes the candidate name, job description, formatted
// experience blocks, formatted questionnaire answers, and tone instruction.
const coverLetterTemplate = `Write a cover letter for %s based on the following information:

Job Description:
%s

Professional Experience:
%s

%s

Tone Instructions: %s

Guidelines:
- Keep it concise and impactful
- Address specific points from the job description
- Highlight relevant experience and achievements
- Maintain a professional yet engaging style
- Include a strong opening and closing
- Format with proper spacing and paragraphs`
