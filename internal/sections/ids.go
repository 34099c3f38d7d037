package sections

import "github.com/google/uuid"

func newRuleID() string {
	return uuid.New().String()
}
