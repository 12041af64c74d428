package message

// CliRequest carries a parsed command value (a GnbCliCommand or
// UeCliCommand variant) from the CLI server task to the node's App task,
// which owns the pause-and-sample logic and answers via Reply.
type CliRequest struct {
	Cmd   any
	Reply chan CliResponse
}

// CliResponse is either a YAML document (Text, Err == nil) or an error
// string (Err != nil), per the northbound CLI wire contract.
type CliResponse struct {
	Text string
	Err  error
}
