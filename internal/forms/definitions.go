package forms

const petitionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["student_id", "term", "course_code", "reason"],
  "properties": {
    "student_id": {"type": "string", "minLength": 1, "maxLength": 32},
    "term": {"type": "string", "minLength": 1, "maxLength": 32},
    "course_code": {"type": "string", "minLength": 1, "maxLength": 16},
    "reason": {"type": "string", "minLength": 10, "maxLength": 4000}
  },
  "additionalProperties": false
}`

const withdrawalSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["student_id", "term", "reason"],
  "properties": {
    "student_id": {"type": "string", "minLength": 1, "maxLength": 32},
    "term": {"type": "string", "minLength": 1, "maxLength": 32},
    "last_date_attended": {"type": "string", "maxLength": 32},
    "reason": {"type": "string", "minLength": 10, "maxLength": 4000}
  },
  "additionalProperties": false
}`

const interInstitutionalSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["student_id", "term", "host_institution", "course_code", "credit_hours"],
  "properties": {
    "student_id": {"type": "string", "minLength": 1, "maxLength": 32},
    "term": {"type": "string", "minLength": 1, "maxLength": 32},
    "host_institution": {"type": "string", "minLength": 2, "maxLength": 128},
    "course_code": {"type": "string", "minLength": 1, "maxLength": 16},
    "credit_hours": {"type": "number", "minimum": 1, "maximum": 12}
  },
  "additionalProperties": false
}`

const undergradPetitionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["student_id", "petition_type", "statement"],
  "properties": {
    "student_id": {"type": "string", "minLength": 1, "maxLength": 32},
    "petition_type": {"type": "string", "enum": ["late_add", "late_drop", "overload", "requirement_waiver"]},
    "statement": {"type": "string", "minLength": 10, "maxLength": 4000}
  },
  "additionalProperties": false
}`

const documentShell = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p><strong>Name:</strong> {{.StudentName}} &lt;{{.Email}}&gt;</p>
`

const documentFooter = `<p><em>Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}</em></p>
</body>
</html>`

const petitionTemplate = documentShell + `
<p><strong>Student ID:</strong> {{index .Fields "student_id"}}</p>
<p><strong>Term:</strong> {{index .Fields "term"}}</p>
<p><strong>Course:</strong> {{index .Fields "course_code"}}</p>
<h2>Reason for Petition</h2>
<p>{{index .Fields "reason"}}</p>
` + documentFooter

const withdrawalTemplate = documentShell + `
<p><strong>Student ID:</strong> {{index .Fields "student_id"}}</p>
<p><strong>Term:</strong> {{index .Fields "term"}}</p>
{{with index .Fields "last_date_attended"}}<p><strong>Last date attended:</strong> {{.}}</p>{{end}}
<h2>Reason for Withdrawal</h2>
<p>{{index .Fields "reason"}}</p>
` + documentFooter

const interInstitutionalTemplate = documentShell + `
<p><strong>Student ID:</strong> {{index .Fields "student_id"}}</p>
<p><strong>Term:</strong> {{index .Fields "term"}}</p>
<p><strong>Host institution:</strong> {{index .Fields "host_institution"}}</p>
<p><strong>Course:</strong> {{index .Fields "course_code"}}</p>
<p><strong>Credit hours:</strong> {{index .Fields "credit_hours"}}</p>
` + documentFooter

const undergradPetitionTemplate = documentShell + `
<p><strong>Student ID:</strong> {{index .Fields "student_id"}}</p>
<p><strong>Petition type:</strong> {{index .Fields "petition_type"}}</p>
<h2>Statement</h2>
<p>{{index .Fields "statement"}}</p>
` + documentFooter
