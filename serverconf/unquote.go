package serverconf

import "strings"

var directiveUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\"`, `"`,
	`\'`, `'`,
	`\r`, "\r",
	`\n`, "\n",
	`\t`, "\t",
)

// Unescape converts a quoted directive value to the text the server actually uses, by
// applying the same backslash escapes as the server's configuration parser.
func Unescape(value string) string {
	return directiveUnescaper.Replace(value)
}
