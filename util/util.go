package util

import (
	"hash/fnv"
	"os"
	"strconv"
	"sync"

	"github.com/sony/sonyflake"
)

var (
	sonyFlake *sonyflake.Sonyflake
	once      sync.Once
	nodeSeed  string
)

// SetNodeID 进程启动时设置节点标识，参与机器号推导
func SetNodeID(id string) {
	nodeSeed = id
}

// InitSonyFlake 初始化 Snowflake 实例
// 显式提供机器号，不依赖默认的私网IP推导（容器和CI里经常拿不到私网IP，
// 默认推导失败会返回 nil 实例）
func InitSonyFlake() {
	once.Do(func() {
		sonyFlake = sonyflake.NewSonyflake(sonyflake.Settings{MachineID: machineID})
		if sonyFlake == nil {
			panic("sonyflake初始化失败")
		}
	})
}

// machineID 由节点标识、主机名和PID推导 16 位机器号
func machineID() (uint16, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(nodeSeed))
	if host, err := os.Hostname(); err == nil {
		_, _ = h.Write([]byte(host))
	}
	_, _ = h.Write([]byte(strconv.Itoa(os.Getpid())))
	return uint16(h.Sum32()), nil
}

// GenerateOrderID 生成唯一订单ID，时间递增，可直接用于时间相同情况下的次级排序
func GenerateOrderID() (uint64, error) {
	if sonyFlake == nil {
		InitSonyFlake()
	}
	return sonyFlake.NextID()
}

// GenerateEventID 生成结算事件消息ID
func GenerateEventID() (uint64, error) {
	if sonyFlake == nil {
		InitSonyFlake()
	}
	return sonyFlake.NextID()
}
