package app

// MaxMentionAlertsPerMessage bounds how many players one message can alert.
// Extra mentions still render; they just do not notify.
const MaxMentionAlertsPerMessage = 8
