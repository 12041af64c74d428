package model

type PlmnIdIE struct {
	Mcc string `yaml:"mcc"`
	Mnc string `yaml:"mnc"`
}

type TaiIE struct {
	Tac             string   `yaml:"tac"`
	BroadcastPlmnId PlmnIdIE `yaml:"broadcastPlmnId"`
}

type SnssaiIE struct {
	Sst string `yaml:"sst"`
	Sd  string `yaml:"sd"`
}
