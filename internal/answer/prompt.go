package answer

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// systemPrompt pins the model to the retrieved context. The
// insufficient-information instruction is what makes an empty context block
// safe: the model declines instead of fabricating.
const systemPrompt = `You are the assistant on a personal portfolio website. ` +
	`Visitors ask about the site owner's background, blog posts, and projects.

Answer using ONLY the context provided in the user message. ` +
	`If the context does not contain the information needed to answer the question, ` +
	`say that you don't have enough information to answer — do not make anything up. ` +
	`Keep answers short and conversational.`

// userPromptFormat embeds the assembled context block and the visitor's
// question into one user message.
const userPromptFormat = `Context:
%s

Question: %s`

// AssembleContext joins retrieved chunk contents, in descending-similarity
// order, separated by blank lines. An empty slice yields an empty block.
func AssembleContext(contents []string) string {
	return strings.Join(contents, "\n\n")
}

// buildMessages renders the fixed prompt template for one question.
func buildMessages(contextBlock, question string) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf(userPromptFormat, contextBlock, question)),
	}
}
