package config

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type BusType string

const BUS_TYPE_REDIS BusType = "redis"
const BUS_TYPE_MEMORY BusType = "memory"

type OverlapPolicy string

const OVERLAP_POLICY_ALLOW OverlapPolicy = "allow"
const OVERLAP_POLICY_SKIP OverlapPolicy = "skip"

type Config struct {
	HttpPort           int
	RedisConfig        RedisConfig
	WarehouseConfig    WarehouseConfig
	StorageType        StorageType
	BusType            BusType
	DefaultBus         string
	OverlapPolicy      OverlapPolicy
	AnalyticsFile      string
	RunStorePartitions int
}

type RedisConfig struct {
	Addrs     []string
	Namespace string
}

type WarehouseConfig struct {
	Driver string
	DSN    string
}
