package oracle

import "fmt"

const studentInfoSampleBytes = 2000

const gradingSystemPrompt = "You are a helpful grading assistant. Always respond with valid JSON."

const reformatPrompt = "Your previous response did not match the required schema. " +
	"Respond again with ONLY a JSON object of the form " +
	`{"score": <integer 0-100>, "feedback": "<string>", "deductions": [{"reason": "<string>", "points_lost": <non-negative number>}]}` +
	" and nothing else. No markdown, no commentary."

func gradingPrompt(referenceText, submissionText string) string {
	return fmt.Sprintf(`You are a grading assistant. Compare the student submission against the reference solution and provide a detailed grade.

REFERENCE SOLUTION:
%s

STUDENT SUBMISSION:
%s

Please provide:
1. A score out of 100
2. A brief feedback (2-3 sentences)
3. A breakdown of deductions: for each mistake or missing element, the specific issue and the number of points deducted for it

The sum of all points_lost values must equal (100 - score). Double-check your math before responding.

Respond in JSON format:
{
    "score": 85,
    "feedback": "Overall good work, but missed some edge cases.",
    "deductions": [
        {"reason": "Missing error handling in Question 1", "points_lost": 5},
        {"reason": "Incorrect calculation in part 2", "points_lost": 10}
    ]
}`, referenceText, submissionText)
}

const studentInfoSystemPrompt = "You are a helpful assistant that extracts student information from documents. " +
	"Always respond with valid JSON only."

func studentInfoPrompt(sample string) string {
	return fmt.Sprintf(`Extract the student's name and NetID/Student ID from the following document text.

Document text:
%s

Look for:
- Student name (could be labeled as "Name", "Author", "Student Name", "Submitted by", or just appear as a name)
- NetID or Student ID (could be labeled as "NetID", "Net ID", "Student ID", "ID", or appear as a pattern like "abc12345")

Respond in JSON format only:
{
    "student_id": "abc12345" or "unknown" if not found,
    "student_name": "John Doe" or null if not found
}

Be flexible with formats. The name might just appear without a label.`, sample)
}
