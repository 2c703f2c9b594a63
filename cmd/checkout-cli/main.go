package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/spf13/cobra"

	"checkout-flow-api/checkout"
	"checkout-flow-api/logger"
	"checkout-flow-api/models"
)

var Version = "dev"

var errPaymentFailed = errors.New("payment failed")

func main() {
	var serverURL string
	var verbose bool
	var successDelay time.Duration

	rootCmd := &cobra.Command{
		Use:           "checkout-cli",
		Short:         "Drive the demo checkout against a running server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8000", "Checkout server URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log controller transitions")
	rootCmd.PersistentFlags().DurationVar(&successDelay, "success-delay", checkout.DefaultSuccessDelay, "Pause before opening the success page")

	newController := func(out io.Writer) (*checkout.Controller, error) {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		api := checkout.NewHTTPClient(serverURL, &http.Client{Jar: jar})

		opts := []checkout.Option{checkout.WithSuccessDelay(successDelay)}
		if verbose {
			log, err := logger.New("development")
			if err != nil {
				return nil, err
			}
			opts = append(opts, checkout.WithLogger(log))
		}
		return checkout.NewController(api, &consoleView{out: out}, &printNavigator{out: out}, opts...), nil
	}

	rootCmd.AddCommand(cardCmd(newController))
	rootCmd.AddCommand(contextCmd(newController))
	rootCmd.AddCommand(redirectCmd(newController))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type controllerFactory func(out io.Writer) (*checkout.Controller, error)

func cardCmd(newController controllerFactory) *cobra.Command {
	var form checkout.CardForm

	cmd := &cobra.Command{
		Use:   "card",
		Short: "Pay by card",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctrl.Select(models.MethodCard)
			ctrl.SubmitCard(form)
			ctrl.Wait()
			return result(ctrl)
		},
	}

	cmd.Flags().StringVar(&form.Number, "number", "4242424242424242", "Card number")
	cmd.Flags().StringVar(&form.ExpiryMonth, "month", "12", "Expiry month")
	cmd.Flags().StringVar(&form.ExpiryYear, "year", "30", "Expiry year")
	cmd.Flags().StringVar(&form.CVV, "cvv", "123", "Security code")

	return cmd
}

func contextCmd(newController controllerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "klarna",
		Short: "Create a payment context (the hosted widget is not available in a terminal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctrl.Select(models.MethodContextBased)
			ctrl.Wait()

			if pc := ctrl.State().Context; pc != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "payment context: %s\n", pc.ID)
			}
			return result(ctrl)
		},
	}
}

func redirectCmd(newController controllerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "ideal",
		Short: "Start a bank redirect payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctrl.Select(models.MethodRedirectOnly)
			ctrl.PayRedirect()
			ctrl.Wait()
			return result(ctrl)
		},
	}
}

func result(ctrl *checkout.Controller) error {
	state := ctrl.State()
	if state.Phase == checkout.PhaseFailed {
		return fmt.Errorf("%w: %s", errPaymentFailed, state.Error)
	}
	return nil
}
