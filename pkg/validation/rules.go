package validation

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

type rule struct {
	code    string
	message string
}

var (
	rulesMu sync.RWMutex
	rules   = map[string]rule{}
)

// RegisterRule adds a string check usable as a validate tag. Failures are
// reported with code and message. Register rules at init time, before any
// value is validated.
func RegisterRule(tag string, check func(string) bool, code, message string) error {
	err := Validator().RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return check(field.String())
	})
	if err != nil {
		return fmt.Errorf("failed to register rule %q: %w", tag, err)
	}

	rulesMu.Lock()
	rules[tag] = rule{code: code, message: message}
	rulesMu.Unlock()
	return nil
}

func registeredRule(tag string) (rule, bool) {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	r, ok := rules[tag]
	return r, ok
}
