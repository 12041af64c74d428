package logger

const (
	CONFIG_TAG = "CONFIG"

	GNB_TAG = "GNB"
	UE_TAG  = "UE"

	TASK_TAG = "TASK"
	SCTP_TAG = "SCTP"
	NGAP_TAG = "NGAP"
	RRC_TAG  = "RRC"
	GTP_TAG  = "GTP"
	MR_TAG   = "MR"
	APP_TAG  = "APP"
	XN_TAG   = "XN"

	MM_TAG  = "MM"
	SM_TAG  = "SM"
	NAS_TAG = "NAS"
	TUN_TAG = "TUN"

	CLI_TAG = "CLI"
)
