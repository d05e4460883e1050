package model

import "time"

// Domain names a sampled kernel subsystem.
type Domain string

const (
	DomainCPU           Domain = "cpu"
	DomainMemory        Domain = "memory"
	DomainBlockDevice   Domain = "blockdevice"
	DomainNetworkDevice Domain = "networkdevice"
	DomainLoadavg       Domain = "loadavg"
	DomainPressure      Domain = "pressure"
	DomainVmStat        Domain = "vmstat"
	DomainXfs           Domain = "xfs"
)

// Domains lists every domain in sampling order.
var Domains = []Domain{
	DomainCPU,
	DomainMemory,
	DomainBlockDevice,
	DomainNetworkDevice,
	DomainLoadavg,
	DomainPressure,
	DomainVmStat,
	DomainXfs,
}

// TotalInstance is the synthetic instance aggregating all real block or network devices.
const TotalInstance = "TOTAL"

// Timestamped is implemented by every domain record.
type Timestamped interface {
	At() time.Time
}

// Instanced is implemented by records of multi-instance domains.
type Instanced interface {
	Timestamped
	InstanceName() string
}
