package model

import "time"

// NetworkDeviceInfo holds per-second /proc/net/dev rates for one interface, or for the
// TOTAL instance.
type NetworkDeviceInfo struct {
	Timestamp          time.Time `json:"timestamp"`
	DeviceName         string    `json:"device_name"`
	ReceiveBytes       float64   `json:"receive_bytes"`
	ReceivePackets     float64   `json:"receive_packets"`
	ReceiveErrors      float64   `json:"receive_errors"`
	ReceiveDrop        float64   `json:"receive_drop"`
	ReceiveFifo        float64   `json:"receive_fifo"`
	ReceiveFrame       float64   `json:"receive_frame"`
	ReceiveCompressed  float64   `json:"receive_compressed"`
	ReceiveMulticast   float64   `json:"receive_multicast"`
	TransmitBytes      float64   `json:"transmit_bytes"`
	TransmitPackets    float64   `json:"transmit_packets"`
	TransmitErrors     float64   `json:"transmit_errors"`
	TransmitDrop       float64   `json:"transmit_drop"`
	TransmitFifo       float64   `json:"transmit_fifo"`
	TransmitCollisions float64   `json:"transmit_collisions"`
	TransmitCarrier    float64   `json:"transmit_carrier"`
	TransmitCompressed float64   `json:"transmit_compressed"`
}

func (n NetworkDeviceInfo) At() time.Time        { return n.Timestamp }
func (n NetworkDeviceInfo) InstanceName() string { return n.DeviceName }
