package ticket

// DefaultTemplate is the embedded ticket layout.
// It uses {{variable}} placeholders, see Render.
const DefaultTemplate = `# Train Ticket

| | |
|---|---|
| **PNR** | {{pnr}} |
| **Train** | {{train_name}} ({{train_id}}) |
| **Date of Journey** | {{date}} |
| **From** | {{from_name}} ({{from}}) |
| **To** | {{to_name}} ({{to}}) |
| **Status** | {{status}} |
| **Issued** | {{issued}} |

## Passengers

{{passengers}}

**Total fare:** {{total}}

---
Thank you for booking with Rail Transit!
`
