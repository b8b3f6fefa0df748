package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/zxhio/delaysim/internal/errcode"
	"github.com/zxhio/delaysim/internal/model"
	"github.com/zxhio/delaysim/pkg/utils"
	"gopkg.in/yaml.v2"
)

const DefaultDelay = "10ms"

type Config struct {
	KernelTweaks []model.KernelTweak
	Groups       []*model.InterfaceGroup
}

type UnknownRoleError struct {
	Group     string
	Interface string
	Role      string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("group %s interface %s: unknown role %q, only \"tx\" and \"rx\" are allowed", e.Group, e.Interface, e.Role)
}

// Raw document shapes, MapSlice keeps the document order of groups, members
// and roles.
type fileConfig struct {
	KernelTweaks    yaml.MapSlice `yaml:"kernel_tweaks"`
	InterfaceGroups yaml.MapSlice `yaml:"interface_groups"`
}

// tweakValues holds the scalar text of every tweak as written in the file.
type tweakValues struct {
	KernelTweaks map[string]string `yaml:"kernel_tweaks"`
}

type fileGroup struct {
	Delay      string        `yaml:"delay"`
	QueueCount int           `yaml:"queue_count"`
	Members    yaml.MapSlice `yaml:"members"`
}

type loadOpts struct {
	defaultDelay string
}

type LoadOpt func(*loadOpts)

// WithDefaultDelay sets the delay used by groups that do not set one.
func WithDefaultDelay(delay string) LoadOpt {
	return func(o *loadOpts) { o.defaultDelay = delay }
}

func Load(path string, opts ...LoadOpt) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errcode.New(errcode.CodeNotExist, "file %s not found", path)
		}
		return nil, errors.Wrap(err, "os.ReadFile")
	}
	return Parse(data, opts...)
}

func Parse(data []byte, opts ...LoadOpt) (*Config, error) {
	o := loadOpts{defaultDelay: DefaultDelay}
	for _, opt := range opts {
		opt(&o)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, errcode.NewError(errcode.CodeInvalid, err)
	}

	var tv tweakValues
	if len(fc.KernelTweaks) > 0 {
		if err := yaml.Unmarshal(data, &tv); err != nil {
			return nil, errcode.New(errcode.CodeInvalid, "kernel_tweaks: %v", err)
		}
	}

	cfg := &Config{}
	for _, item := range fc.KernelTweaks {
		key, err := itemKey(item)
		if err != nil {
			return nil, errors.Wrap(err, "kernel_tweaks")
		}
		if item.Value == nil {
			return nil, errcode.New(errcode.CodeInvalid, "kernel_tweaks: %s has no value", key)
		}
		cfg.KernelTweaks = append(cfg.KernelTweaks, model.KernelTweak{Key: key, Value: tv.KernelTweaks[key]})
	}

	if len(fc.InterfaceGroups) == 0 {
		return nil, errcode.New(errcode.CodeInvalid, "no interface_groups")
	}
	for _, item := range fc.InterfaceGroups {
		name, err := itemKey(item)
		if err != nil {
			return nil, errors.Wrap(err, "interface_groups")
		}
		g, err := parseGroup(name, item.Value, o.defaultDelay)
		if err != nil {
			return nil, err
		}
		cfg.Groups = append(cfg.Groups, g)
	}
	return cfg, nil
}

func parseGroup(name string, v interface{}, defaultDelay string) (*model.InterfaceGroup, error) {
	var fg fileGroup
	if err := remarshal(v, &fg); err != nil {
		return nil, errcode.New(errcode.CodeInvalid, "group %s: %v", name, err)
	}

	g := &model.InterfaceGroup{Name: name, Delay: fg.Delay, QueueCount: fg.QueueCount}
	if g.Delay == "" {
		g.Delay = defaultDelay
	}
	if g.QueueCount <= 0 {
		return nil, errcode.New(errcode.CodeInvalid, "group %s: queue_count must be positive, got %d", name, g.QueueCount)
	}
	if len(fg.Members) == 0 {
		return nil, errcode.New(errcode.CodeInvalid, "group %s: no members", name)
	}

	for _, m := range fg.Members {
		iface, err := itemKey(m)
		if err != nil {
			return nil, errors.Wrapf(err, "group %s members", name)
		}
		n := len(g.Members)
		if g.Members = utils.SliceAppendUnique(g.Members, iface); len(g.Members) == n {
			continue
		}

		var roles yaml.MapSlice
		if err := remarshal(m.Value, &roles); err != nil {
			return nil, errcode.New(errcode.CodeInvalid, "group %s interface %s: %v", name, iface, err)
		}
		for _, r := range roles {
			role, err := itemKey(r)
			if err != nil {
				return nil, errors.Wrapf(err, "group %s interface %s", name, iface)
			}
			if !model.Role(role).Valid() {
				return nil, &UnknownRoleError{Group: name, Interface: iface, Role: role}
			}
			core, ok := r.Value.(int)
			if !ok || core < 0 {
				return nil, errcode.New(errcode.CodeInvalid, "group %s interface %s-%s: invalid core %v", name, iface, role, r.Value)
			}
			g.Cores = append(g.Cores, model.CoreAssignment{Interface: iface, Role: model.Role(role), Core: core})
		}
	}
	return g, nil
}

func itemKey(item yaml.MapItem) (string, error) {
	key, ok := item.Key.(string)
	if !ok || key == "" {
		return "", errcode.New(errcode.CodeInvalid, "invalid key %v", item.Key)
	}
	return key, nil
}

// remarshal decodes an already parsed yaml node into out.
func remarshal(in interface{}, out interface{}) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}
