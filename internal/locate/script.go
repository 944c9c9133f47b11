package locate

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// probeJS receives {by, value, name, ref}, tags the first visible match with
// the ref attribute and returns whether it found one. Invalid CSS is a miss.
const probeJS = `(function(spec) {
	const norm = s => (s || '').replace(/\s+/g, ' ').trim().toLowerCase();
	const visible = el => {
		const r = el.getBoundingClientRect();
		const st = window.getComputedStyle(el);
		return (r.width > 0 || r.height > 0) && st.visibility !== 'hidden' && st.display !== 'none';
	};
	const textOf = el => norm(el.getAttribute('aria-label') || el.innerText || el.textContent || el.value);
	const innermost = list => list.filter(el => !list.some(o => o !== el && el.contains(o)));
	const implicit = {
		button: 'button,input[type=button],input[type=submit],[role=button]',
		link: 'a[href],[role=link]',
		tab: '[role=tab]',
		textbox: 'input:not([type]),input[type=text],input[type=email],input[type=number],textarea,[role=textbox]',
		combobox: 'select,[role=combobox]',
		checkbox: 'input[type=checkbox],[role=checkbox]',
		switch: '[role=switch],input[type=checkbox]'
	};
	const want = norm(spec.value);
	let found = [];
	try {
		switch (spec.by) {
		case 'css':
			found = Array.from(document.querySelectorAll(spec.value));
			break;
		case 'text':
			found = innermost(Array.from(document.body.querySelectorAll('*'))
				.filter(el => el.children.length < 8 && textOf(el).includes(want)));
			break;
		case 'placeholder':
			found = Array.from(document.querySelectorAll('[placeholder]'))
				.filter(el => norm(el.getAttribute('placeholder')).includes(want));
			break;
		case 'label':
			Array.from(document.querySelectorAll('label')).forEach(l => {
				if (!norm(l.textContent).includes(want)) return;
				const target = l.control || (l.htmlFor && document.getElementById(l.htmlFor)) || l.querySelector('input,select,textarea');
				if (target) found.push(target);
			});
			found = found.concat(Array.from(document.querySelectorAll('[aria-label]'))
				.filter(el => norm(el.getAttribute('aria-label')).includes(want)));
			break;
		case 'role':
			found = Array.from(document.querySelectorAll(implicit[want] || '[role="' + want + '"]'));
			if (spec.name) {
				const name = norm(spec.name);
				found = found.filter(el => textOf(el).includes(name));
			}
			break;
		case 'name':
			found = Array.from(document.getElementsByName(spec.value));
			break;
		}
	} catch (e) {
		return false;
	}
	const el = found.find(visible);
	if (!el) return false;
	el.setAttribute('` + RefAttribute + `', spec.ref);
	return true;
})(%s)`

type probeSpec struct {
	Locator
	Ref string `json:"ref"`
}

// ProbeScript renders the JS expression that resolves l and tags the element with ref.
func ProbeScript(l Locator, ref string) (string, error) {
	switch l.By {
	case ByCSS, ByText, ByPlaceholder, ByLabel, ByRole, ByName:
	default:
		return "", fmt.Errorf("locate: unsupported strategy %q", l.By)
	}
	if l.Value == "" {
		return "", fmt.Errorf("locate: empty %s locator", l.By)
	}
	arg, err := json.Marshal(probeSpec{Locator: l, Ref: ref})
	if err != nil {
		return "", fmt.Errorf("locate: failed to encode locator: %w", err)
	}
	return fmt.Sprintf(probeJS, arg), nil
}
