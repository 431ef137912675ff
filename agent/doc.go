// Package agent provides the reasoning loop of the Sleuth assistant.
//
// An episode starts from the rendered prompt template (question plus the
// enumerated tools) and repeatedly asks the model to continue it. Each
// completion is appended to the episode's PromptState and parsed:
//
//   - "Action: <tool>" with "Action Input: <text>" runs the tool through the
//     registry and appends "Observation: <result>" before the next model call
//   - "Final Answer: <text>" ends the episode successfully
//   - anything else ends it with an error
//
// The model is always stopped at "Observation:" so that observations only
// ever come from real tool calls.
//
// # Usage
//
//	a := agent.New(client, registry, renderer, agent.Options{Model: "llama3", Temperature: 0.5, MaxTurns: 15}, agent.ToolVerbosityNone)
//	answer, err := a.Answer(ctx, "What is 2 + 3 * 4?", agent.ProcessCallbacks{})
//
// # Errors
//
// Every failure ends the episode:
//
//   - *MissingActionInputError: an action without a usable input
//   - *MissingFinalAnswerError: neither an action nor a final answer
//   - *MaxTurnsExceededError: Options.MaxTurns model calls without an answer
//   - *tools.UnknownToolError, *tools.ToolExecutionError from dispatch
//   - *llm.ModelUnavailableError from the model client
//
// # Subpackages
//
// agent/terminal: the interactive console that reads questions, merges them
// with earlier exchanges and prints answers.
package agent
