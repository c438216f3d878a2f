package config

// mergeAgents copies user-defined agent definitions into registry form.
// There are no built-in agents — agents come from user YAML plus explicit
// component registration — so this only normalizes to pointer values.
func mergeAgents(userAgents map[string]AgentDefinition) map[string]*AgentDefinition {
	result := make(map[string]*AgentDefinition, len(userAgents))
	for name, userAgent := range userAgents {
		agentCopy := userAgent
		result[name] = &agentCopy
	}
	return result
}

// mergeToolGroups copies user-defined tool groups into registry form.
func mergeToolGroups(userGroups map[string]ToolGroupConfig) map[string]*ToolGroupConfig {
	result := make(map[string]*ToolGroupConfig, len(userGroups))
	for name, userGroup := range userGroups {
		groupCopy := userGroup
		result[name] = &groupCopy
	}
	return result
}

// mergeMCPServers copies user-defined MCP server configurations into
// registry form.
func mergeMCPServers(userServers map[string]MCPServerConfig) map[string]*MCPServerConfig {
	result := make(map[string]*MCPServerConfig, len(userServers))
	for id, userServer := range userServers {
		serverCopy := userServer
		result[id] = &serverCopy
	}
	return result
}

// mergeRedactionPatterns merges built-in and user-defined redaction
// patterns. User-defined patterns override built-in patterns with the
// same name.
func mergeRedactionPatterns(builtin map[string]RedactionPattern, user map[string]RedactionPattern) map[string]RedactionPattern {
	result := make(map[string]RedactionPattern, len(builtin)+len(user))
	for name, pattern := range builtin {
		result[name] = pattern
	}
	for name, pattern := range user {
		result[name] = pattern
	}
	return result
}
