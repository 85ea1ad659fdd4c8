package owlet

// StatusOnline is the connection status the cloud reports for a reachable device.
const StatusOnline = "Online"

// Device is one Smart Sock registered on the account.
type Device struct {
	Name             string `json:"name"`
	Serial           string `json:"serial"`
	Model            string `json:"model"`
	OEMModel         string `json:"oem_model,omitempty"`
	SoftwareVersion  string `json:"software_version,omitempty"`
	MACAddress       string `json:"mac_address,omitempty"`
	LANIP            string `json:"lan_ip,omitempty"`
	DeviceType       string `json:"device_type,omitempty"`
	ConnectionStatus string `json:"connection_status"`
	// SockVersion is 0 until a property read has identified the hardware generation.
	SockVersion int `json:"sock_version,omitempty"`
}

func (d Device) Online() bool {
	return d.ConnectionStatus == StatusOnline
}

// Version returns the sock generation, preferring what a snapshot detected.
func (d Device) Version(s Snapshot) int {
	if s.SockVersion != 0 {
		return s.SockVersion
	}
	return d.SockVersion
}
