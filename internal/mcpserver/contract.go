package mcpserver

// NotesFormatContract describes the case layout and notes file format so
// LLM consumers can read and annotate cases correctly.
const NotesFormatContract = `# CaseFile Notes Format

Each case is a directory ` + "`" + `<base>/<date bucket>/<serial>` + "`" + `. The date bucket is
the opening day rendered with the configured strftime pattern (default
` + "`" + `%Y-%m-%d` + "`" + `); the serial is the first free label of the configured series
(default A to Z). A case is referred to as ` + "`" + `<date bucket>/<serial>` + "`" + `, e.g.
` + "`" + `2024-01-01/B` + "`" + `.

## Notes file

The first line is the summary, stamped with the local time the case was opened:

    # 14:03:12:  Database primary unreachable from app tier

Every later line written by the tools is a log entry:

    ## 14:10:40: failover to replica completed

## Rules

1. Never edit the summary line; open a new case instead.
2. Append observations with ` + "`" + `log_case` + "`" + `, one fact per entry. Entries are
   time-stamped automatically; do not add your own stamp.
3. Entries are single lines. Line breaks inside a note are written verbatim,
   so keep notes to one line.
4. Use ` + "`" + `latest_case` + "`" + ` to find the case currently being worked on before
   logging to it.
5. Cases are never deleted or renamed through these tools.
`
