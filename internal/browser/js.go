// internal/browser/js.go
package browser

// Scripts evaluated in the page. Each is an IIFE taking its arguments via
// fmt.Sprintf with JSON-encoded values, so selectors and text never need
// manual escaping.

// jsIsVisible reports whether any element matching the selector is rendered:
// not display:none, not visibility:hidden, not fully transparent, and owning
// a non-empty box.
// Args: selector.
const jsIsVisible = `(() => {
	const els = document.querySelectorAll(%s);
	for (const el of els) {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') continue;
		const rect = el.getBoundingClientRect();
		if (rect.width > 0 && rect.height > 0) return true;
	}
	return false;
})()`

// jsResolveTarget locates the element to act on and tags it with a unique
// data attribute, returning a selector for the tag ('' when nothing matched).
// Text mode scans interactive-ish elements for an exact text match first,
// then a containment match; structural mode is querySelectorAll. Among the
// matches the first visible element wins, falling back to the first match.
// Args: useText (bool), target (string), scope selector (string, may be "").
const jsResolveTarget = `(() => {
	const useText = %t;
	const target = %s;
	const scopeSel = %s;

	let root = document;
	if (scopeSel) {
		const scoped = document.querySelector(scopeSel);
		if (scoped) root = scoped;
	}

	const rendered = (el) => {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};

	let candidates = [];
	if (useText) {
		const needle = target.trim().toLowerCase();
		if (!needle) return '';
		const pool = root.querySelectorAll(
			"a, button, input, select, option, label, summary, [role='button'], [role='menuitem'], [role='tab'], [onclick], span, div, li");
		const exact = [], partial = [];
		for (const el of pool) {
			const text = ((el.innerText || el.value || el.getAttribute('aria-label') || '')).trim().toLowerCase();
			if (!text) continue;
			if (text === needle) exact.push(el);
			else if (text.includes(needle) && text.length <= needle.length + 60) partial.push(el);
		}
		candidates = exact.length ? exact : partial;
		// Containment matches nest (div > span > button all "contain" the
		// text); prefer the innermost.
		if (!exact.length && candidates.length > 1) {
			candidates = candidates.filter(el => !candidates.some(o => o !== el && el.contains(o)));
		}
	} else {
		try {
			candidates = Array.from(root.querySelectorAll(target));
		} catch (e) {
			return '';
		}
	}
	if (!candidates.length) return '';

	const pick = candidates.find(rendered) || candidates[0];
	const tag = 'gf-' + Date.now().toString(36) + '-' + Math.random().toString(36).slice(2, 8);
	pick.setAttribute('data-gf-target', tag);
	return '[data-gf-target="' + tag + '"]';
})()`

// jsClickRect returns the viewport center of the first matching element, or
// null. Args: selector.
const jsClickRect = `(() => {
	const el = document.querySelector(%s);
	if (!el) return null;
	el.scrollIntoView({block: 'center', inline: 'center'});
	const rect = el.getBoundingClientRect();
	return {x: rect.left + rect.width / 2, y: rect.top + rect.height / 2};
})()`

// jsScriptClick invokes the element's native click method. Args: selector.
const jsScriptClick = `(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.click();
	return true;
})()`

// jsDispatchClick fires a synthetic bubbling MouseEvent, which reaches
// delegated handlers even on elements the pointer cannot touch.
// Args: selector.
const jsDispatchClick = `(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true, view: window}));
	return true;
})()`

// jsScrollIntoView centers the element in the viewport. Args: selector.
const jsScrollIntoView = `(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.scrollIntoView({block: 'center', inline: 'center'});
	return true;
})()`
