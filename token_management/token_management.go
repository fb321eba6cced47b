package token_management

import (
	"fmt"

	"github.com/gryffinlabs/gryffin/constants/lipgloss"
	"github.com/gryffinlabs/gryffin/token_management/contracts"
)

// tokenManager accumulates token usage reported by providers over one
// pipeline run.
type tokenManager struct {
	usedToken       int
	usedInputToken  int
	usedOutputToken int
}

// NewTokenManager creates a new token manager.
func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// UsedTokens accumulates the token count for the session.
func (tm *tokenManager) UsedTokens(inputToken int, outputToken int) {
	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenManager) GetCurrentTokenUsage() (total int, input int, output int) {
	return tm.usedToken, tm.usedInputToken, tm.usedOutputToken
}

func (tm *tokenManager) DisplayTokens(providerName string, model string) {
	if tm.usedToken == 0 {
		return
	}
	tokenInfo := fmt.Sprintf("Tokens Used: %d (input: %d, output: %d) - Provider: %s - Model: %s",
		tm.usedToken, tm.usedInputToken, tm.usedOutputToken, providerName, model)
	fmt.Println(lipgloss.BoxStyle.Render(tokenInfo))
}

func (tm *tokenManager) ClearToken() {
	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedOutputToken = 0
}
