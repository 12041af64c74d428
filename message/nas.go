package message

// PerformMmCycle is the self-addressed trigger every NAS-MM state switch
// posts to re-evaluate the mobility state machine.
type PerformMmCycle struct{}

// DeRegisterCmd asks NAS-MM to start a de-registration procedure,
// delivered from the CLI command plane.
type DeRegisterCmd struct {
	IsSwitchOff     bool
	DueToDisable5g  bool
}

// EstablishSessionCmd asks NAS-SM to start a PDU session establishment
// for the named DNN, delivered at UE boot for each configured session.
type EstablishSessionCmd struct {
	Dnn string
	Sst uint8
	Sd  string
}
