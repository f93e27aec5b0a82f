package command

import "strings"

func (r *Router) help() string {
	var sb strings.Builder
	for _, c := range catalog {
		sb.WriteString(c.Token)
		sb.WriteString(":")
		sb.WriteString(c.Description)
		sb.WriteString("\n")
	}
	return sb.String()
}
