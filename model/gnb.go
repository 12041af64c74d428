package model

type GnbConfig struct {
	Gnb    GnbIE    `yaml:"gnb"`
	Logger LoggerIE `yaml:"logger"`
	Cli    CliIE    `yaml:"cli"`
}

type GnbIE struct {
	GnbId   string `yaml:"gnbId"`
	GnbName string `yaml:"gnbName"`

	PlmnId PlmnIdIE `yaml:"plmnId"`
	Tai    TaiIE    `yaml:"tai"`

	// Nssais is the set of slices advertised in the NG Setup Request's
	// BroadcastPLMNList / TAISliceSupportList.
	Nssais []SnssaiIE `yaml:"nssais"`

	// PagingDrx names a ngapType.PagingDRXPresent* value (e.g. "v128").
	PagingDrx string `yaml:"pagingDrx"`

	AmfConfigs      []AmfConfigIE `yaml:"amfConfigs"`
	IgnoreStreamIds []uint16      `yaml:"ignoreStreamIds"`

	RanN2Ip string `yaml:"ranN2Ip"`

	RanN3Ip   string `yaml:"ranN3Ip"`
	RanN3Port int    `yaml:"ranN3Port"`
	UpfN3Ip   string `yaml:"upfN3Ip"`
	UpfN3Port int    `yaml:"upfN3Port"`

	// RanIp/RanPort is the Uu-facing listener UE processes dial.
	RanIp   string `yaml:"ranIp"`
	RanPort int    `yaml:"ranPort"`

	XnInterface XnInterfaceIE `yaml:"xnInterface"`

	Debug DebugIE `yaml:"debug"`
}

type AmfConfigIE struct {
	AmfId int    `yaml:"amfId"`
	Ip    string `yaml:"ip"`
	Port  int    `yaml:"port"`
}

type XnInterfaceIE struct {
	Enable bool `yaml:"enable"`

	XnListenIp   string `yaml:"xnListenIp"`
	XnListenPort int    `yaml:"xnListenPort"`

	XnDialIp   string `yaml:"xnDialIp"`
	XnDialPort int    `yaml:"xnDialPort"`
}

// DebugIE gates debug-only behaviour that must never run unless an
// operator explicitly opts in, per the Open Question decision on the
// handleXnHandover parameterless stub.
type DebugIE struct {
	EnableHandoverStub bool `yaml:"enableHandoverStub"`
}
