package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sandarika/labubananas/utils"
)

const assistantDisclaimer = "This is informational, not legal advice. Consider contacting a licensed attorney or your union rep."

// assistantTopics maps question keywords to suggestions. Topics are checked in order.
var assistantTopics = []struct {
	keywords    []string
	suggestions []string
}{
	{
		keywords: []string{"overtime", "hours", "breaks"},
		suggestions: []string{
			"Track worked hours accurately and keep personal records.",
			"Review your local labor laws about overtime and rest periods.",
		},
	},
	{
		keywords: []string{"retaliation", "fire", "fired", "discipline"},
		suggestions: []string{
			"Document incidents and communications in writing.",
			"Ask HR or your union about anti-retaliation protections.",
		},
	},
}

var assistantFallback = []string{
	"Document facts, dates, and communications.",
	"Check your contract and local labor laws.",
	"Reach out to a union representative for tailored guidance.",
}

// AssistantController answers workplace questions with canned guidance.
type AssistantController struct{}

// NewAssistantController creates a new AssistantController instance.
func NewAssistantController() *AssistantController {
	return &AssistantController{}
}

// AssistantAnswer is the response of Ask.
type AssistantAnswer struct {
	Answer      string   `json:"answer"`
	Suggestions []string `json:"suggestions"`
}

// Ask matches keywords in the question and returns suggestions.
func (a *AssistantController) Ask(ctx *gin.Context) {
	var req struct {
		Question string `json:"question" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid request payload")
		return
	}
	utils.Success(ctx, answerQuestion(req.Question))
}

func answerQuestion(question string) AssistantAnswer {
	q := strings.ToLower(strings.TrimSpace(question))
	var tips []string
	for _, topic := range assistantTopics {
		for _, k := range topic.keywords {
			if strings.Contains(q, k) {
				tips = append(tips, topic.suggestions...)
				break
			}
		}
	}
	if len(tips) == 0 {
		tips = append(tips, assistantFallback...)
	}
	return AssistantAnswer{Answer: assistantDisclaimer, Suggestions: tips}
}
