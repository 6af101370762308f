package config

import (
	"github.com/cfoust/tumble/pkg/ingress"
	"github.com/cfoust/tumble/pkg/state"
	"github.com/cfoust/tumble/pkg/table"
)

type ServerSettings struct {
	Address string `yaml:"address" json:"address"`
	Port    int    `yaml:"port" json:"port"`
}

type Config struct {
	Server  ServerSettings   `yaml:"server" json:"server"`
	Table   table.Settings   `yaml:"table" json:"table"`
	Ingress ingress.Settings `yaml:"ingress" json:"ingress"`
	Redis   state.Settings   `yaml:"redis" json:"redis"`
}
