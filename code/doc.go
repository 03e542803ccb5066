// Package code extracts fenced code blocks from message text and runs them in
// a sandbox: a local subprocess or a docker container.
//
// Each execution writes the code to tmp_code_<md5>.<ext> inside the configured
// working directory, runs the interpreter for the language with a timeout and
// removes the file afterwards. A non-zero exit is reported as a Result, not
// an error.
//
//	exec := code.NewExecutor(code.DefaultConfig())
//	res, err := exec.ExecuteBlocks(ctx, code.ExtractCode(text, false))
package code
