package notification

import (
	"fmt"
	"strings"
)

const signature = "Regards,\nePaisa - Dygnify"

func chunk(chunks []string, i int) string {
	if i < 0 || i >= len(chunks) {
		return ""
	}
	return chunks[i]
}

func interactionLine(chunks []string) string {
	return fmt.Sprintf("Your interaction id is %s and %s and %s.", chunk(chunks, 0), chunk(chunks, 1), chunk(chunks, 2))
}

// RegistrationSuccess confirms account and wallet creation.
func RegistrationSuccess(firstName string, chunks []string) string {
	return fmt.Sprintf("Congratulations %s!\nWe are happy to inform that your account & wallet has been created successfully.\n%s\n%s",
		strings.TrimSpace(firstName), interactionLine(chunks), signature)
}

// RegistrationFailure reports a failed registration.
func RegistrationFailure(firstName string, chunks []string) string {
	return fmt.Sprintf("We are sorry to inform %s!\nYour account & wallet creation has failed. Please try after sometime or contact your bank.\n%s\n%s",
		strings.TrimSpace(firstName), interactionLine(chunks), signature)
}

// LoadSuccess confirms a wallet top-up.
func LoadSuccess(firstName, amount string, chunks []string) string {
	return fmt.Sprintf("Congratulations %s!\nAmount of %s has been successfully credited in your ePaisa wallet.\n%s\n%s",
		strings.TrimSpace(firstName), amount, interactionLine(chunks), signature)
}

// LoadFailure reports a failed top-up.
func LoadFailure(firstName, amount string, chunks []string) string {
	return fmt.Sprintf("We are sorry to inform %s!\nAmount of %s has failed to load in your ePaisa wallet.\n%s\n%s",
		strings.TrimSpace(firstName), amount, interactionLine(chunks), signature)
}

// TransferSuccessToSender is sent to the paying party.
func TransferSuccessToSender(amount, receiverPhone string, chunks []string) string {
	return fmt.Sprintf("Congratulations, your transaction is successful!\nAmount of %s, has been successfully credited to ePaisa wallet of %s.\n%s\n%s",
		amount, receiverPhone, interactionLine(chunks), signature)
}

// TransferFailureToSender is sent to the paying party.
func TransferFailureToSender(amount, receiverPhone string, chunks []string) string {
	return fmt.Sprintf("We are sorry to inform that your transaction of amount %s to %s has failed.\n%s\n%s",
		amount, receiverPhone, interactionLine(chunks), signature)
}

// TransferSuccessToReceiver is sent to the receiving party.
func TransferSuccessToReceiver(firstName, amount, senderPhone string, chunks []string) string {
	return fmt.Sprintf("Congratulations %s!\nYour have received amount of %s in your ePaisa wallet from %s.\n%s\n%s",
		strings.TrimSpace(firstName), amount, senderPhone, interactionLine(chunks), signature)
}

// TransferFailureToReceiver is sent to the receiving party.
func TransferFailureToReceiver(firstName, amount, senderPhone string, chunks []string) string {
	return fmt.Sprintf("We are sorry to inform %s!\nRemittance of amount %s from %s to you has failed.\n%s\n%s",
		strings.TrimSpace(firstName), amount, senderPhone, interactionLine(chunks), signature)
}

// UnknownAction is the generic reply for requests that could not be understood.
func UnknownAction() string {
	return "We are sorry to inform that your request could not be processed. Please check the app and try again.\n" + signature
}
