package initializer

import (
	"github.com/AlecAivazis/survey/v2"
)

// Validator rejects an answer with a message shown to the user
type Validator func(answer string) error

// Prompter asks the setup questions
type Prompter interface {
	Input(message, defaultValue string, validate Validator) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter asks questions on the terminal
type SurveyPrompter struct{}

// Input implements Prompter
func (SurveyPrompter) Input(message, defaultValue string, validate Validator) (string, error) {
	var answer string
	opts := []survey.AskOpt{survey.WithValidator(survey.Required)}
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}

	err := survey.AskOne(&survey.Input{Message: message, Default: defaultValue}, &answer, opts...)
	return answer, err
}

// Confirm implements Prompter
func (SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	answer := defaultValue
	err := survey.AskOne(&survey.Confirm{Message: message, Default: defaultValue}, &answer)
	return answer, err
}

// Select implements Prompter
func (SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	var answer string
	prompt := &survey.Select{Message: message, Options: options}
	for _, o := range options {
		if o == defaultValue {
			prompt.Default = defaultValue
			break
		}
	}
	err := survey.AskOne(prompt, &answer)
	return answer, err
}
