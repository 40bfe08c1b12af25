package terminal

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

// Prompter asks the user for input.
type Prompter interface {
	SelectPair() (from, to domain.Currency, err error)
	Amount(from domain.Currency, available decimal.Decimal) (decimal.Decimal, error)
	Confirm(title string) (bool, error)
}

// FormPrompter prompts with interactive terminal forms.
type FormPrompter struct{}

func currencyOptions() []huh.Option[domain.Currency] {
	var opts []huh.Option[domain.Currency]
	for _, c := range domain.Currencies() {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", c, c.Class()), c))
	}

	return opts
}

func (FormPrompter) SelectPair() (from, to domain.Currency, err error) {
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[domain.Currency]().
				Title("From").
				Options(currencyOptions()...).
				Value(&from),
			huh.NewSelect[domain.Currency]().
				Title("To").
				Options(currencyOptions()...).
				Value(&to).
				Validate(func(c domain.Currency) error {
					return validatePair(from, c)
				}),
		),
	).Run()

	return from, to, err
}

func (FormPrompter) Amount(from domain.Currency, available decimal.Decimal) (decimal.Decimal, error) {
	var raw string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Amount of %s", from)).
				Description(fmt.Sprintf("Available %s %s", available.String(), from)).
				Value(&raw).
				Validate(func(s string) error {
					_, err := parseAmount(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return decimal.Zero, err
	}

	return parseAmount(raw)
}

func (FormPrompter) Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()

	return ok, err
}

func validatePair(from, to domain.Currency) error {
	if from == to {
		return fmt.Errorf("pick two different currencies")
	}
	if from.IsFiat() && to.IsFiat() {
		return fmt.Errorf("fiat to fiat exchange is not supported")
	}

	return nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("must be greater than zero")
	}

	return d, nil
}
