package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// parseCommand splits a prefixed message into command and argument.
// Returns ok=false when the content does not start with the prefix.
func parseCommand(content, prefix string) (cmd, arg string, ok bool) {
	if !strings.HasPrefix(content, prefix) {
		return "", "", false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(content, prefix))
	if rest == "" {
		return "", "", false
	}

	parts := strings.SplitN(rest, " ", 2)
	cmd = strings.ToLower(parts[0])
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg, true
}

func (c *Client) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	cmd, arg, ok := parseCommand(m.Content, c.prefix)
	if !ok {
		return
	}

	resp := newMessageResponder(s, m)

	switch cmd {
	case "join", "conectar", "j":
		c.doJoin(resp)
	case "leave", "disconnect", "salir", "l":
		c.doLeave(resp)
	case "play", "p":
		if arg == "" {
			resp.Respond(fmt.Sprintf("⚠️ Te faltó la emisora o URL. Uso: `%splay <clave | URL>`", c.prefix), false)
			return
		}
		c.doPlay(resp, arg)
	case "panelradio":
		c.handlePanelRadio(s, m, resp)
	case "help", "ayuda":
		resp.Respond(c.helpText(), false)
	}
}

// handlePanelRadio resends the control panel, replacing the tracked
// message wholesale. Privileged: requires Manage Server.
func (c *Client) handlePanelRadio(s *discordgo.Session, m *discordgo.MessageCreate, resp Responder) {
	perms, err := s.State.MessagePermissions(m.Message)
	if err != nil {
		perms, err = s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	}
	if err != nil || perms&discordgo.PermissionManageServer == 0 {
		resp.Respond("🚫 Necesitas el permiso *Gestionar Servidor* para reenviar el panel.", false)
		return
	}

	if !c.renderer.Enabled() {
		resp.Respond("❌ No hay canal de texto dedicado configurado en .env.", false)
		return
	}

	id, err := c.renderer.Publish()
	if err != nil {
		c.log.WithError(err).Error("Failed to republish panel")
		resp.Respond(fmt.Sprintf("❌ No pude reenviar el panel: %v", err), false)
		return
	}

	resp.Respond(fmt.Sprintf("✅ Panel de radio reenviado. Nuevo ID de mensaje: `%s`.", id), false)
}

func (c *Client) helpText() string {
	var b strings.Builder
	p := c.prefix
	fmt.Fprintf(&b, "**Comandos de Rock & Bot**\n")
	fmt.Fprintf(&b, "`%sjoin` — me uno a tu canal de voz (alias: conectar, j)\n", p)
	fmt.Fprintf(&b, "`%sleave` — detengo la radio y me voy (alias: disconnect, salir, l)\n", p)
	fmt.Fprintf(&b, "`%splay <clave | URL>` — reproduzco una emisora (alias: p)\n", p)
	fmt.Fprintf(&b, "`%spanelradio` — reenvía el panel de control (requiere Gestionar Servidor)\n", p)
	return b.String()
}
