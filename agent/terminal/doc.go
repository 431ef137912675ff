// Package terminal implements the console mode of the Sleuth assistant.
//
// The terminal reads one question per line, rewrites follow-up questions
// into standalone ones through the agent's merge round, runs the agent and
// prints the answer. Every answered exchange is appended to the session
// transcript, which is the only conversation memory.
//
// # Usage
//
//	term := terminal.New(a, session.New(), os.Stdin, os.Stdout, cfg.ExitOnError)
//	err := term.Run(ctx, initialQuestion)
//
// # Errors
//
// By default a failed question is logged and the terminal waits for the next
// one. With exitOnError set, Run returns the first error instead. EOF, /quit
// and /exit end the session with a nil error.
//
// # Verbosity Levels
//
//   - None: only answers are printed
//   - Info: tool names are printed when called
//   - All: tool names, inputs and observations are printed
package terminal
